// Package eventbus adapts the message broker for integration events. The
// publisher hands outbox events to RabbitMQ; the consumer dispatches
// deliveries to registered handlers.
package eventbus

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/outbox/domain"
)

// RabbitMQPublisher publishes integration events to a RabbitMQ queue.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewRabbitMQPublisher connects to the broker and declares the queue.
func NewRabbitMQPublisher(url, queue string, logger *slog.Logger) (*RabbitMQPublisher, error) {
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

	return &RabbitMQPublisher{
		conn:    conn,
		channel: channel,
		queue:   queue,
		logger:  logger,
	}, nil
}

// Publish sends the event to the queue. The event id travels as the message
// id so consumers can deduplicate redeliveries.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	err := p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Type:         event.EventType,
			Body:         []byte(event.Payload),
		},
	)
	if err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	p.logger.Debug("event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
	)

	return nil
}

// Close releases the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
