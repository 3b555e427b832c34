package interfaces

import (
	"context"

	"github.com/Joseph14078/JoAuth/internal/models"
)

// UserService is the account API. Failures are *userservice.Error values or
// userservice.Errors lists.
type UserService interface {
	Find(ctx context.Context, req models.FindRequest) (*models.User, error)
	FindQuery(ctx context.Context, query models.UserQuery) (*models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	Authenticate(ctx context.Context, req models.AuthRequest) (*models.User, error)
	Edit(ctx context.Context, req models.EditRequest) error
	Remove(ctx context.Context, req models.AuthRequest) (string, error)
	SafeFields() []string
}
