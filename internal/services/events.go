package services

import (
	"context"
	"time"

	"todoapp/internal/models"
)

// TodoEventType names a todo lifecycle transition.
type TodoEventType string

const (
	TodoCreated TodoEventType = "todo.created"
	TodoUpdated TodoEventType = "todo.updated"
	TodoDeleted TodoEventType = "todo.deleted"
)

// TodoEvent is emitted after a todo mutation has been committed.
type TodoEvent struct {
	Type       TodoEventType     `json:"type"`
	TodoID     string            `json:"todo_id"`
	UserID     string            `json:"user_id"`
	Status     models.TodoStatus `json:"status,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher delivers todo events to interested parties.
type EventPublisher interface {
	PublishTodoEvent(ctx context.Context, event TodoEvent) error
}
