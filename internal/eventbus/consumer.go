package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
)

// Handler processes one integration event. The event id is the broker
// message id and doubles as the idempotency key for any command the handler
// issues.
type Handler func(ctx context.Context, eventID uuid.UUID, body []byte) error

// Consumer reads integration events from a RabbitMQ queue and dispatches
// them by event type. Registration happens before Start; the registry is
// immutable while consuming.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	handlers map[string]Handler
	started  bool
	logger   *slog.Logger
}

// NewConsumer connects to the broker and declares the queue.
func NewConsumer(url, queue string, logger *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to broker")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, errors.Wrap(err, "failed to open channel")
	}

	_, err = channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		channel.Close() //nolint:errcheck
		conn.Close()    //nolint:errcheck
		return nil, errors.Wrap(err, "failed to declare queue")
	}

	return &Consumer{
		conn:     conn,
		channel:  channel,
		queue:    queue,
		handlers: make(map[string]Handler),
		logger:   logger,
	}, nil
}

// Register binds a handler to an event type. Registering the same type twice
// or registering after Start is an error.
func (c *Consumer) Register(eventType string, handler Handler) error {
	if c.started {
		return errors.New("cannot register handler after consumer started")
	}
	if _, exists := c.handlers[eventType]; exists {
		return fmt.Errorf("handler already registered for event type %q", eventType)
	}
	c.handlers[eventType] = handler
	return nil
}

// Start consumes deliveries until the context is cancelled. A failed handler
// leaves the delivery unacked so the broker redelivers it; handlers are
// idempotent, so redelivery is safe.
func (c *Consumer) Start(ctx context.Context) error {
	c.started = true

	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to start consuming")
	}

	c.logger.Info("consumer started", slog.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	if err := c.dispatch(ctx, delivery.Type, delivery.MessageId, delivery.Body); err != nil {
		c.logger.Error("event handling failed",
			slog.String("event_id", delivery.MessageId),
			slog.String("event_type", delivery.Type),
			slog.Any("error", err),
		)
		//nolint:errcheck
		delivery.Nack(false, true)
		return
	}

	//nolint:errcheck
	delivery.Ack(false)
}

// dispatch resolves the handler for the event type and invokes it. Unknown
// event types are dropped with a warning rather than redelivered forever.
func (c *Consumer) dispatch(ctx context.Context, eventType, messageID string, body []byte) error {
	handler, ok := c.handlers[eventType]
	if !ok {
		c.logger.Warn("no handler for event type", slog.String("event_type", eventType))
		return nil
	}

	eventID, err := uuid.Parse(messageID)
	if err != nil {
		c.logger.Warn("malformed event id dropped", slog.String("event_id", messageID))
		return nil
	}

	return handler(ctx, eventID, body)
}

// Close releases the channel and the connection.
func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
