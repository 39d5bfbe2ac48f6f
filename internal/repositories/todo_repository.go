package repositories

import (
	"context"

	"todoapp/internal/models"
)

// TodoRepository defines the interface for todo data access. Every read and
// write is scoped to the owning user: a todo that exists but belongs to
// someone else is reported exactly like a missing one (apperrors.ErrNotFound).
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) error
	FindByIDForOwner(ctx context.Context, id, userID string) (*models.Todo, error)
	// ListForOwner returns the user's todos newest first, optionally only
	// those with the given status. No match yields an empty slice.
	ListForOwner(ctx context.Context, userID string, status *models.TodoStatus) ([]models.Todo, error)
	UpdatePartial(ctx context.Context, id, userID string, patch models.TodoPatch) (*models.Todo, error)
	DeleteForOwner(ctx context.Context, id, userID string) error
}
