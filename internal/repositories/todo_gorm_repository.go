package repositories

import (
	"context"
	"errors"
	"fmt"

	"todoapp/internal/apperrors"
	"todoapp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMTodoRepository is a GORM implementation of TodoRepository.
type GORMTodoRepository struct {
	db *gorm.DB
}

// NewGORMTodoRepository creates a new instance of GORMTodoRepository.
func NewGORMTodoRepository(db *gorm.DB) *GORMTodoRepository {
	return &GORMTodoRepository{
		db: db,
	}
}

func todoNotFound(id string) error {
	return apperrors.NotFound("Todo with ID %s not found", id)
}

// owned restricts a query to one todo of one owner.
func owned(db *gorm.DB, id, userID string) *gorm.DB {
	return db.Where("id = ? AND user_id = ?", id, userID)
}

// Create creates a new todo in the database.
func (r *GORMTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	if todo.Status == "" {
		todo.Status = models.TodoStatusPending
	}
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// FindByIDForOwner retrieves a single todo owned by userID.
func (r *GORMTodoRepository) FindByIDForOwner(ctx context.Context, id, userID string) (*models.Todo, error) {
	return r.findForOwner(r.db.WithContext(ctx), id, userID)
}

func (r *GORMTodoRepository) findForOwner(db *gorm.DB, id, userID string) (*models.Todo, error) {
	var todo models.Todo
	if err := owned(db, id, userID).First(&todo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, todoNotFound(id)
		}
		return nil, fmt.Errorf("failed to get todo by ID %s: %w", id, err)
	}
	return &todo, nil
}

// ListForOwner retrieves the todos owned by userID, newest first.
func (r *GORMTodoRepository) ListForOwner(ctx context.Context, userID string, status *models.TodoStatus) ([]models.Todo, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	todos := make([]models.Todo, 0)
	if err := query.Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("failed to list todos for user %s: %w", userID, err)
	}
	return todos, nil
}

// UpdatePartial applies the non-nil fields of patch to the todo and returns
// the stored result. The ownership condition is part of the UPDATE itself,
// and the whole read-modify-read runs in one transaction.
func (r *GORMTodoRepository) UpdatePartial(ctx context.Context, id, userID string, patch models.TodoPatch) (*models.Todo, error) {
	if patch.Empty() {
		return r.FindByIDForOwner(ctx, id, userID)
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	var updated *models.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.findForOwner(tx, id, userID); err != nil {
			return err
		}

		// Updates with a model also sets updated_at.
		res := owned(tx.Model(&models.Todo{}), id, userID).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update todo: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return todoNotFound(id)
		}

		todo, err := r.findForOwner(tx, id, userID)
		if err != nil {
			return err
		}
		updated = todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteForOwner deletes a todo owned by userID.
func (r *GORMTodoRepository) DeleteForOwner(ctx context.Context, id, userID string) error {
	res := owned(r.db.WithContext(ctx), id, userID).Delete(&models.Todo{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete todo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return todoNotFound(id)
	}
	return nil
}
