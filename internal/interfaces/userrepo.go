package interfaces

import (
	"context"

	"github.com/Joseph14078/JoAuth/internal/models"
)

// UserRepository defines the contract for storing and retrieving User data.
// Lookups that match nothing return an error wrapping databases.ErrNotFound.
type UserRepository interface {
	// ValidID reports whether id is a well formed key for this backend.
	ValidID(id string) bool
	FindUser(ctx context.Context, query models.UserQuery) (*models.User, error)
	AddUser(ctx context.Context, user models.User) (string, error)
	// UpdateUser sets the given fields, keyed by schema field name.
	UpdateUser(ctx context.Context, id string, fields map[string]any) error
	RemoveUser(ctx context.Context, id string) error
	EnsureIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
