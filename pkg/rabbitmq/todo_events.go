package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"todoapp/internal/logging"
	"todoapp/internal/services"

	amqp "github.com/streadway/amqp"
)

// PublishTodoEvent implements services.EventPublisher.
func (c *Client) PublishTodoEvent(ctx context.Context, event services.TodoEvent) error {
	return c.PublishJSON(ctx, event)
}

// DecodeTodoEvent parses a todo event message body.
func DecodeTodoEvent(body []byte) (services.TodoEvent, error) {
	var event services.TodoEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if event.Type == "" || event.TodoID == "" {
		return event, fmt.Errorf("%w: missing type or todo_id", ErrMalformed)
	}
	return event, nil
}

// AuditHandler returns a delivery handler that records every todo event in
// the log.
func AuditHandler(logger logging.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		event, err := DecodeTodoEvent(msg.Body)
		if err != nil {
			return err
		}
		logger.Info(context.Background(), "todo event",
			"type", event.Type,
			"todo_id", event.TodoID,
			"user_id", event.UserID,
			"status", event.Status,
			"occurred_at", event.OccurredAt,
		)
		return nil
	}
}
