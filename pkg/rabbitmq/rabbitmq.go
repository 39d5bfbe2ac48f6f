package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"todoapp/internal/logging"

	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  logging.Logger
	mu      sync.Mutex // serializes publishes on the shared channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares cfg.Queue
// as a durable queue.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq: queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info(context.Background(), "RabbitMQ client connected", "queue", cfg.Queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger.With("component", "rabbitmq"),
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishJSON marshals v and publishes it as a persistent message on the
// client's queue through the default exchange.
func (c *Client) PublishJSON(ctx context.Context, v interface{}) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug(ctx, "message published", "queue", c.queue, "bytes", len(body))
	return nil
}

// Consume delivers messages from the client's queue to handler until ctx is
// cancelled or the channel closes. Deliveries are acknowledged manually; see
// HandleDelivery.
func (c *Client) Consume(ctx context.Context, handler func(amqp.Delivery) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info(ctx, "waiting for messages", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			HandleDelivery(ctx, c.logger, msg, handler)
		}
	}
}

// ErrMalformed marks a message that can never be processed. HandleDelivery
// drops such messages instead of requeueing them.
var ErrMalformed = errors.New("malformed message")

// HandleDelivery runs handler on msg and settles it: ack on success, reject
// without requeue on ErrMalformed, nack with requeue on any other error.
func HandleDelivery(ctx context.Context, logger logging.Logger, msg amqp.Delivery, handler func(amqp.Delivery) error) {
	err := handler(msg)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error(ctx, "failed to ack message", "delivery_tag", msg.DeliveryTag, "error", ackErr)
		}
	case errors.Is(err, ErrMalformed):
		logger.Warn(ctx, "dropping malformed message", "delivery_tag", msg.DeliveryTag, "error", err)
		if rejectErr := msg.Reject(false); rejectErr != nil {
			logger.Error(ctx, "failed to reject message", "delivery_tag", msg.DeliveryTag, "error", rejectErr)
		}
	default:
		logger.Error(ctx, "failed to process message", "delivery_tag", msg.DeliveryTag, "error", err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.Error(ctx, "failed to nack message", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
	}
}
