package services

import (
	"context"
	"time"

	"todoapp/internal/logging"
	"todoapp/internal/models"
	"todoapp/internal/repositories"
	"todoapp/internal/validation"
)

// CreateTodoInput is the payload for a new todo. Status defaults to PENDING.
type CreateTodoInput struct {
	Title       string            `json:"title" validate:"required,notblank,max=255"`
	Description *string           `json:"description"`
	Status      models.TodoStatus `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS DONE"`
}

// TodoService handles business logic related to todos. Every method takes
// the authenticated user's ID and never reaches another user's todos.
type TodoService struct {
	repo      repositories.TodoRepository
	publisher EventPublisher // optional
	validate  *validation.Validator
	logger    logging.Logger
	now       func() time.Time
}

// NewTodoService creates a new TodoService. publisher may be nil.
func NewTodoService(repo repositories.TodoRepository, publisher EventPublisher, logger logging.Logger) *TodoService {
	return &TodoService{
		repo:      repo,
		publisher: publisher,
		validate:  validation.New(),
		logger:    logger.With("component", "todos"),
		now:       time.Now,
	}
}

// Create stores a new todo owned by userID.
func (s *TodoService) Create(ctx context.Context, userID string, in CreateTodoInput) (*models.Todo, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.TodoStatusPending
	}

	todo := &models.Todo{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}

	s.publish(ctx, TodoCreated, todo.ID, userID, todo.Status)
	return todo, nil
}

// List returns userID's todos, newest first, optionally filtered by status.
func (s *TodoService) List(ctx context.Context, userID string, status *models.TodoStatus) ([]models.Todo, error) {
	return s.repo.ListForOwner(ctx, userID, status)
}

// Get returns one todo owned by userID.
func (s *TodoService) Get(ctx context.Context, userID, id string) (*models.Todo, error) {
	return s.repo.FindByIDForOwner(ctx, id, userID)
}

// Update applies the provided fields of patch to a todo owned by userID.
func (s *TodoService) Update(ctx context.Context, userID, id string, patch models.TodoPatch) (*models.Todo, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, err
	}

	todo, err := s.repo.UpdatePartial(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, TodoUpdated, todo.ID, userID, todo.Status)
	return todo, nil
}

// Delete removes a todo owned by userID. Deleting it again yields NotFound.
func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteForOwner(ctx, id, userID); err != nil {
		return err
	}

	s.publish(ctx, TodoDeleted, id, userID, "")
	return nil
}

// publish is best-effort: the mutation is already committed, so a broker
// failure is logged and otherwise ignored.
func (s *TodoService) publish(ctx context.Context, typ TodoEventType, todoID, userID string, status models.TodoStatus) {
	if s.publisher == nil {
		return
	}
	event := TodoEvent{
		Type:       typ,
		TodoID:     todoID,
		UserID:     userID,
		Status:     status,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishTodoEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "failed to publish todo event", "type", typ, "todo_id", todoID, "error", err)
	}
}
