package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for database/sql

	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/userrepo/constants"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/databases/postgres"
	"github.com/Joseph14078/JoAuth/pkg/helper"

	"github.com/google/uuid"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// columns maps schema field names to table columns.
var columns = map[string]string{
	models.FieldID:           "id",
	models.FieldUsername:     "username",
	models.FieldEmail:        "email",
	models.FieldPasswordHash: "password_hash",
	models.FieldCreation:     "creation",
	models.FieldVerified:     "verified",
}

// ddl creates the users table and its unique indices.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ` + constants.UsersCollection + ` (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		creation TIMESTAMPTZ NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_idx ON ` + constants.UsersCollection + ` (username)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON ` + constants.UsersCollection + ` (email)`,
}

// PostgresUserRepository implements UserRepository for PostgreSQL databases.
type PostgresUserRepository struct {
	dbClient interfaces.DBClient
}

// NewPostgresUserRepository creates a new PostgreSQL repository instance.
func NewPostgresUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	if _, ok := dbClient.(*postgres.PostgresDatabaseClient); !ok {
		return nil, fmt.Errorf("dbClient must be a PostgreSQL client")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

// ValidID reports whether id is a UUID.
func (r *PostgresUserRepository) ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// FindUser looks a user up by ID, or by username OR email.
func (r *PostgresUserRepository) FindUser(ctx context.Context, query models.UserQuery) (*models.User, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, query.Fields, &user); err != nil {
		return nil, fmt.Errorf("failed to find user in PostgreSQL: %w", err)
	}
	return &user, nil
}

// AddUser saves a new user to PostgreSQL and returns the generated UUID.
func (r *PostgresUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	doc := map[string]interface{}{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"creation":      user.Creation,
		"verified":      user.Verified,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("user '%s' already exists: %w", user.Username, err)
		}
		return "", fmt.Errorf("failed to add user to PostgreSQL: %w", err)
	}
	strID, ok := insertedID.(string)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to string (expected UUID)")
	}
	return strID, nil
}

// UpdateUser sets fields, keyed by schema field name, on the user with id.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	if !r.ValidID(id) {
		return fmt.Errorf("invalid user id %q", id)
	}
	update, err := toColumns(fields)
	if err != nil {
		return err
	}

	matched, err := r.dbClient.UpdateOne(ctx, constants.UsersCollection, map[string]interface{}{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update user in PostgreSQL: %w", err)
	}
	if matched == 0 {
		return fmt.Errorf("user %s: %w", id, databases.ErrNotFound)
	}
	return nil
}

// RemoveUser deletes the user with the given ID.
func (r *PostgresUserRepository) RemoveUser(ctx context.Context, id string) error {
	if !r.ValidID(id) {
		return fmt.Errorf("invalid user id %q", id)
	}

	deleted, err := r.dbClient.DeleteOne(ctx, constants.UsersCollection, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("failed to remove user from PostgreSQL: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("user %s: %w", id, databases.ErrNotFound)
	}
	return nil
}

// EnsureIndices creates the users table and unique indices on username and
// email.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, ddl)
}

// Close closes the PostgreSQL database connection.
func (r *PostgresUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func buildFilter(query models.UserQuery) (map[string]interface{}, error) {
	if query.ID != "" {
		return map[string]interface{}{"id": query.ID}, nil
	}

	var alternatives []map[string]interface{}
	if query.Username != "" {
		alternatives = append(alternatives, map[string]interface{}{"username": helper.Lower(query.Username)})
	}
	if query.Email != "" {
		alternatives = append(alternatives, map[string]interface{}{"email": helper.Lower(query.Email)})
	}
	if len(alternatives) == 0 {
		return nil, fmt.Errorf("query needs an id, a username or an email")
	}
	return map[string]interface{}{postgres.OrKey: alternatives}, nil
}

func toColumns(fields map[string]any) (map[string]interface{}, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	out := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		column, ok := columns[field]
		if !ok || column == "id" {
			return nil, fmt.Errorf("field %s cannot be updated", field)
		}
		out[column] = value
	}
	return out, nil
}
