package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Joseph14078/JoAuth/config"
	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/helper"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
)

// allowedOperators lists the query and update operators accepted at the top
// level of filters and updates. Everything else starting with '$' is rejected.
var allowedOperators = map[string]bool{
	"$or":  true,
	"$and": true,
	"$set": true,
}

// MongoDBClient implements the interfaces.DBClient interface for MongoDB operations.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	databaseName     string
	timeout          time.Duration
	validCollections map[string]bool // A map to validate collection names
	validFields      map[string]bool // A map to validate field names
	logger           interfaces.Logger
}

// NewMongoDB returns a interface for db client and error if it occurs
func NewMongoDB(dbConfig *config.MongoDBConfig, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("MongoDBClient: config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("MongoDBClient: logger cannot be nil")
	}

	db := &MongoDBClient{
		timeout:          dbConfig.Timeout,
		databaseName:     dbConfig.DatabaseName,
		ServerOpts:       config.BuildServerAPIOptions(dbConfig.Options),
		validCollections: helper.ListToMap(dbConfig.ValidCollections),
		validFields:      helper.ListToMap(dbConfig.ValidFields),
		logger:           logger,
	}

	return db, nil
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The DSN should be in the format "mongodb://<host>:<port>/<database>"; when the
// path carries no database name the configured one is used.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}

	databaseName, err := getDBNameFromMongoDSN(dsn)
	if err != nil {
		if m.databaseName == "" {
			return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %v", err)
		}
		databaseName = m.databaseName
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	clientOptions := options.Client().ApplyURI(dsn)
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.logger.Info("Connecting to MongoDB", "database", databaseName)
	m.client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect: %w", err)
	}

	if err = m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %w", err)
	}
	m.logger.Info("Connected to MongoDB server", "database", databaseName)

	m.db = m.client.Database(databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	m.logger.Info("Disconnecting from MongoDB")
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}

	return nil
}

// InsertOne inserts a document and returns its ID. Any _id in the document is
// dropped so the server assigns one.
func (m *MongoDBClient) InsertOne(ctx context.Context, collectionName string, document interfaces.Document) (interface{}, error) {
	// Avoid logging the document, it carries password hashes.
	m.logger.Debug("Inserting one", "collection", collectionName)

	collection, err := m.collection(collectionName)
	if err != nil {
		return nil, err
	}

	sanitizedDocument, err := m.sanitizeDocument(document, false)
	if err != nil {
		return nil, err
	}

	res, err := collection.InsertOne(ctx, sanitizedDocument)
	if err != nil {
		return nil, fmt.Errorf("MongoDBClient: Failed to insert one into %s: %w", collectionName, err)
	}

	return res.InsertedID, nil
}

// FindOne retrieves a single document from the specified collection using a filter.
// It decodes the result into the provided variable and returns an error wrapping
// databases.ErrNotFound if no document is found.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document, projection []string, result interfaces.Document) error {
	m.logger.Debug("Finding one", "collection", collectionName, "filter", filter)

	collection, err := m.collection(collectionName)
	if err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter, true)
	if err != nil {
		return err
	}

	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(buildProjection(projection))
	}

	err = collection.FindOne(ctx, sanitizedFilter, opts).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("MongoDBClient: %w in %s", databases.ErrNotFound, collectionName)
		}
		return fmt.Errorf("MongoDBClient: Failed to find one in %s: %w", collectionName, err)
	}

	return nil
}

// UpdateOne modifies a single document in the specified collection using a filter and update document.
// Returns the count of matched documents, so an update that changes nothing still counts.
func (m *MongoDBClient) UpdateOne(ctx context.Context, collectionName string, filter interfaces.Document, update interfaces.Document) (int64, error) {
	m.logger.Debug("Updating one", "collection", collectionName, "filter", filter)

	collection, err := m.collection(collectionName)
	if err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter, true)
	if err != nil {
		return 0, err
	}
	sanitizedUpdate, err := m.sanitizeDocument(update, false)
	if err != nil {
		return 0, err
	}

	res, err := collection.UpdateOne(ctx, sanitizedFilter, sanitizedUpdate)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed updating one in %s: %w", collectionName, err)
	}

	return res.MatchedCount, nil
}

// DeleteOne removes a single document from the specified collection using a filter.
// Returns the count of deleted documents and an error if the operation fails.
func (m *MongoDBClient) DeleteOne(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	m.logger.Debug("Deleting one", "collection", collectionName, "filter", filter)

	collection, err := m.collection(collectionName)
	if err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter, true)
	if err != nil {
		return 0, err
	}
	if len(sanitizedFilter) == 0 {
		return 0, fmt.Errorf("MongoDBClient: refusing to delete from %s with an empty filter", collectionName)
	}

	res, err := collection.DeleteOne(ctx, sanitizedFilter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed deleting one from %s: %w", collectionName, err)
	}

	return res.DeletedCount, nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected")
	}
	return m.client.Ping(ctx, nil)
}

// EnsureSchema creates the required indices on the specified collection. The
// schema must be a mongo.IndexModel or a []mongo.IndexModel.
// If the collection does not exist, it will be created automatically.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interfaces.Document) error {
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}

	var models []mongo.IndexModel
	switch s := schema.(type) {
	case mongo.IndexModel:
		models = []mongo.IndexModel{s}
	case []mongo.IndexModel:
		models = s
	default:
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel for MongoDB, got %T", schema)
	}

	names, err := m.db.Collection(collectionName).Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to create indices on %s: %w", collectionName, err)
	}
	m.logger.Info("Indices ensured", "collection", collectionName, "indices", names)
	return nil
}

func (m *MongoDBClient) collection(collectionName string) (*mongo.Collection, error) {
	if collectionName == "" {
		return nil, fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if !m.validCollections[collectionName] {
		return nil, fmt.Errorf("MongoDBClient: Invalid collection name: %s", collectionName)
	}
	if m.db == nil {
		return nil, fmt.Errorf("MongoDBClient is not connected to a database")
	}
	return m.db.Collection(collectionName), nil
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
func getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("no database name found in MongoDB DSN path")
	}

	// If the path contains additional segments (e.g., /db/collection), use only the first as the database name.
	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}

func buildProjection(fields []string) bson.M {
	projection := bson.M{}
	for _, field := range fields {
		projection[field] = 1
	}
	return projection
}

// sanitizeDocument guards against NoSQL injection. Field names must be
// configured valid fields; operators must be allow-listed and field values
// may not be documents themselves, so a caller supplied value can never turn
// into an operator. _id is kept only when allowID is set (filters) and dropped
// otherwise (inserts and updates).
func (m *MongoDBClient) sanitizeDocument(document interfaces.Document, allowID bool) (bson.M, error) {
	if document == nil {
		return bson.M{}, nil
	}

	docMap, ok := asMap(document)
	if !ok {
		return nil, fmt.Errorf("MongoDBClient: document of type %T cannot be sanitized", document)
	}

	sanitized := bson.M{}
	for key, value := range docMap {
		switch {
		case key == IDFIELD:
			if !allowID {
				continue
			}
			sanitized[key] = value

		case strings.HasPrefix(key, "$"):
			if !allowedOperators[key] {
				return nil, fmt.Errorf("MongoDBClient: operator %s is not allowed", key)
			}
			clean, err := m.sanitizeOperand(key, value, allowID)
			if err != nil {
				return nil, err
			}
			sanitized[key] = clean

		default:
			if !m.validFields[key] || strings.ContainsAny(key, "$.") {
				return nil, fmt.Errorf("MongoDBClient: invalid or unsafe field name: %s", key)
			}
			if _, nested := asMap(value); nested {
				return nil, fmt.Errorf("MongoDBClient: nested document not allowed for field %s", key)
			}
			sanitized[key] = value
		}
	}

	return sanitized, nil
}

func (m *MongoDBClient) sanitizeOperand(operator string, value interface{}, allowID bool) (interface{}, error) {
	switch operator {
	case "$set":
		return m.sanitizeDocument(value, false)
	default:
		items, ok := asList(value)
		if !ok {
			return nil, fmt.Errorf("MongoDBClient: operator %s expects an array", operator)
		}
		clean := bson.A{}
		for _, item := range items {
			doc, err := m.sanitizeDocument(item, allowID)
			if err != nil {
				return nil, err
			}
			clean = append(clean, doc)
		}
		return clean, nil
	}
}

func asMap(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case bson.M:
		return v, true
	case map[string]interface{}:
		return v, true
	default:
		return nil, false
	}
}

func asList(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case bson.A:
		return v, true
	case []interface{}:
		return v, true
	case []bson.M:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	default:
		return nil, false
	}
}
