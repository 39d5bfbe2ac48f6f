package repositories

import (
	"context"

	"todoapp/internal/models"
)

// UserRepository defines the interface for user data access.
// Lookups that match nothing return an apperrors.ErrNotFound error;
// Create returns apperrors.ErrConflict on a duplicate username or email.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
