package interfaces

import "context"

// Document is a generic interface to represent data that can be stored
// and retrieved from the database. It could be a struct, a map[string]interface{},
// or any type that can be marshaled/unmarshaled by the specific database driver.
type Document interface{}

// DBClient defines the interface for a generic database client.
// It abstracts common database operations across different database types (e.g., MongoDB, SQL).
type DBClient interface {
	// Connect establishes a connection to the database.
	// It takes a context for cancellation and timeouts, and a DSN (Data Source Name) string.
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// InsertOne inserts a single document into the specified collection/table
	// and returns the ID of the inserted document.
	InsertOne(ctx context.Context, collectionName string, document Document) (interface{}, error)

	// FindOne retrieves a single document matching filter and decodes it into result.
	// 'projection' restricts the retrieved fields; nil means all of them.
	// Returns an error wrapping databases.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, collectionName string, filter Document, projection []string, result Document) error

	// UpdateOne updates a single document matching filter with the given update data.
	// Returns the count of matched documents.
	UpdateOne(ctx context.Context, collectionName string, filter Document, update Document) (int64, error)

	// DeleteOne deletes a single document matching filter.
	// Returns the count of deleted documents.
	DeleteOne(ctx context.Context, collectionName string, filter Document) (int64, error)

	// EnsureSchema prepares indices or tables. The schema argument is backend
	// specific (index models for MongoDB, DDL for PostgreSQL).
	EnsureSchema(ctx context.Context, collectionName string, schema Document) error

	// Ping checks the health of the database connection.
	Ping(ctx context.Context) error
}
