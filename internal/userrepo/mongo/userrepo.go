package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/userrepo/constants"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/helper"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mongoClient "github.com/Joseph14078/JoAuth/pkg/databases/mongo"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoUser is the BSON shape of an account.
type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	Creation     time.Time          `bson:"creation"`
	Verified     bool               `bson:"verified"`
}

func (u mongoUser) toModel() *models.User {
	return &models.User{
		ID:           u.ID.Hex(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Creation:     u.Creation,
		Verified:     u.Verified,
	}
}

// MongoUserRepository implements UserRepository using the generic DBClient.
type MongoUserRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
// It takes a concrete mongo.MongoDBClient.
func NewMongoUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	if _, ok := dbClient.(*mongoClient.MongoDBClient); !ok {
		return nil, fmt.Errorf("dbClient must be a MongoDB client")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// ValidID reports whether id is a hex encoded ObjectID.
func (r *MongoUserRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// FindUser looks a user up by ID, or by username OR email.
func (r *MongoUserRepository) FindUser(ctx context.Context, query models.UserQuery) (*models.User, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	var found mongoUser
	if err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, query.Fields, &found); err != nil {
		return nil, fmt.Errorf("failed to find user in MongoDB: %w", err)
	}
	return found.toModel(), nil
}

// AddUser saves a new user and returns the generated ID.
func (r *MongoUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	doc := bson.M{
		models.FieldUsername:     user.Username,
		models.FieldEmail:        user.Email,
		models.FieldPasswordHash: user.PasswordHash,
		models.FieldCreation:     user.Creation,
		models.FieldVerified:     user.Verified,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		if mongosdk.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("user '%s' already exists: %w", user.Username, err)
		}
		return "", fmt.Errorf("failed to add user to MongoDB: %w", err)
	}

	objID, ok := insertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to ObjectID")
	}
	return objID.Hex(), nil
}

// UpdateUser sets fields on the user with the given ID.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	filter, err := idFilter(id)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}

	matched, err := r.dbClient.UpdateOne(ctx, constants.UsersCollection, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("failed to update user in MongoDB: %w", err)
	}
	if matched == 0 {
		return fmt.Errorf("user %s: %w", id, databases.ErrNotFound)
	}
	return nil
}

// RemoveUser deletes the user with the given ID.
func (r *MongoUserRepository) RemoveUser(ctx context.Context, id string) error {
	filter, err := idFilter(id)
	if err != nil {
		return err
	}

	deleted, err := r.dbClient.DeleteOne(ctx, constants.UsersCollection, filter)
	if err != nil {
		return fmt.Errorf("failed to remove user from MongoDB: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("user %s: %w", id, databases.ErrNotFound)
	}
	return nil
}

// EnsureIndices creates unique indices on username and email.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	indexModels := []mongosdk.IndexModel{
		{
			Keys:    bson.D{{Key: models.FieldUsername, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: models.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, indexModels)
}

// Close disconnects the MongoDB client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func idFilter(id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	return bson.M{"_id": oid}, nil
}

// buildFilter prefers the ID. Otherwise it ORs the lowercase username and
// email, leaving out the empty ones.
func buildFilter(query models.UserQuery) (bson.M, error) {
	if query.ID != "" {
		return idFilter(query.ID)
	}

	alternatives := bson.A{}
	if query.Username != "" {
		alternatives = append(alternatives, bson.M{models.FieldUsername: helper.Lower(query.Username)})
	}
	if query.Email != "" {
		alternatives = append(alternatives, bson.M{models.FieldEmail: helper.Lower(query.Email)})
	}
	if len(alternatives) == 0 {
		return nil, fmt.Errorf("query needs an id, a username or an email")
	}
	return bson.M{"$or": alternatives}, nil
}
