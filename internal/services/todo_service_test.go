package services_test

import (
	"context"
	"errors"
	"testing"

	"todoapp/internal/apperrors"
	"todoapp/internal/logging"
	"todoapp/internal/models"
	"todoapp/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func statusPtr(s models.TodoStatus) *models.TodoStatus { return &s }

func eventOfType(typ services.TodoEventType, todoID string) interface{} {
	return mock.MatchedBy(func(e services.TodoEvent) bool {
		return e.Type == typ && e.TodoID == todoID && e.UserID == "alice" && !e.OccurredAt.IsZero()
	})
}

func TestTodoService_CreateDefaultsToPending(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	publisher := new(MockEventPublisher)
	service := services.NewTodoService(mockRepo, publisher, logging.Discard())

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(todo *models.Todo) bool {
		return todo.Title == "Buy milk" && todo.UserID == "alice" && todo.Status == models.TodoStatusPending
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Todo).ID = "todo-1"
	}).Return(nil).Once()
	publisher.On("PublishTodoEvent", mock.Anything, eventOfType(services.TodoCreated, "todo-1")).Return(nil).Once()

	todo, err := service.Create(context.Background(), "alice", services.CreateTodoInput{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "todo-1", todo.ID)
	assert.Equal(t, models.TodoStatusPending, todo.Status)
	assert.Equal(t, "alice", todo.UserID)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTodoService_CreateKeepsExplicitStatus(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	service := services.NewTodoService(mockRepo, nil, logging.Discard())

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(todo *models.Todo) bool {
		return todo.Status == models.TodoStatusInProgress && *todo.Description == "2 litres"
	})).Return(nil).Once()

	todo, err := service.Create(context.Background(), "alice", services.CreateTodoInput{
		Title:       "Buy milk",
		Description: strPtr("2 litres"),
		Status:      models.TodoStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TodoStatusInProgress, todo.Status)
	mockRepo.AssertExpectations(t)
}

func TestTodoService_CreateValidation(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	service := services.NewTodoService(mockRepo, nil, logging.Discard())

	_, err := service.Create(context.Background(), "alice", services.CreateTodoInput{Title: ""})
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.Create(context.Background(), "alice", services.CreateTodoInput{Title: "ok", Status: "ARCHIVED"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.FieldsOf(err), "status")

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTodoService_List(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	service := services.NewTodoService(mockRepo, nil, logging.Discard())

	expected := []models.Todo{{ID: "2", Title: "B", UserID: "alice"}, {ID: "1", Title: "A", UserID: "alice"}}
	mockRepo.On("ListForOwner", mock.Anything, "alice", (*models.TodoStatus)(nil)).Return(expected, nil).Once()

	todos, err := service.List(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, expected, todos)

	done := statusPtr(models.TodoStatusDone)
	mockRepo.On("ListForOwner", mock.Anything, "alice", done).Return([]models.Todo{}, nil).Once()
	todos, err = service.List(context.Background(), "alice", done)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)

	mockRepo.AssertExpectations(t)
}

func TestTodoService_GetPassesOwnerThrough(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	service := services.NewTodoService(mockRepo, nil, logging.Discard())

	todo := &models.Todo{ID: "todo-1", Title: "A", UserID: "alice"}
	mockRepo.On("FindByIDForOwner", mock.Anything, "todo-1", "alice").Return(todo, nil).Once()
	mockRepo.On("FindByIDForOwner", mock.Anything, "todo-1", "bob").Return(nil, apperrors.NotFound("Todo with ID %s not found", "todo-1")).Once()

	got, err := service.Get(context.Background(), "alice", "todo-1")
	require.NoError(t, err)
	assert.Equal(t, todo, got)

	_, err = service.Get(context.Background(), "bob", "todo-1")
	assert.True(t, apperrors.IsNotFound(err))
	mockRepo.AssertExpectations(t)
}

func TestTodoService_Update(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	publisher := new(MockEventPublisher)
	service := services.NewTodoService(mockRepo, publisher, logging.Discard())

	patch := models.TodoPatch{Status: statusPtr(models.TodoStatusDone)}
	updated := &models.Todo{ID: "todo-1", Title: "A", Status: models.TodoStatusDone, UserID: "alice"}
	mockRepo.On("UpdatePartial", mock.Anything, "todo-1", "alice", patch).Return(updated, nil).Once()
	publisher.On("PublishTodoEvent", mock.Anything, eventOfType(services.TodoUpdated, "todo-1")).Return(nil).Once()

	got, err := service.Update(context.Background(), "alice", "todo-1", patch)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, models.TodoStatusDone, got.Status)

	// Not found: no event.
	mockRepo.On("UpdatePartial", mock.Anything, "missing", "alice", patch).Return(nil, apperrors.NotFound("Todo with ID %s not found", "missing")).Once()
	_, err = service.Update(context.Background(), "alice", "missing", patch)
	assert.True(t, apperrors.IsNotFound(err))

	// Invalid patch never reaches the store.
	_, err = service.Update(context.Background(), "alice", "todo-1", models.TodoPatch{Title: strPtr("")})
	assert.True(t, apperrors.IsValidation(err))

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTodoService_DeleteTwice(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	publisher := new(MockEventPublisher)
	service := services.NewTodoService(mockRepo, publisher, logging.Discard())

	mockRepo.On("DeleteForOwner", mock.Anything, "todo-1", "alice").Return(nil).Once()
	mockRepo.On("DeleteForOwner", mock.Anything, "todo-1", "alice").Return(apperrors.NotFound("Todo with ID %s not found", "todo-1")).Once()
	publisher.On("PublishTodoEvent", mock.Anything, eventOfType(services.TodoDeleted, "todo-1")).Return(nil).Once()

	assert.NoError(t, service.Delete(context.Background(), "alice", "todo-1"))

	err := service.Delete(context.Background(), "alice", "todo-1")
	assert.True(t, apperrors.IsNotFound(err))

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestTodoService_PublishFailureDoesNotFailRequest(t *testing.T) {
	mockRepo := new(MockTodoRepository)
	publisher := new(MockEventPublisher)
	service := services.NewTodoService(mockRepo, publisher, logging.Discard())

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Todo")).Return(nil).Once()
	publisher.On("PublishTodoEvent", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	_, err := service.Create(context.Background(), "alice", services.CreateTodoInput{Title: "still saved"})
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}
