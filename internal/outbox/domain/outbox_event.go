// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/turgayozgur/eshop-ordering/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending    OutboxEventStatus = "pending"
	OutboxEventStatusInProgress OutboxEventStatus = "in_progress"
	OutboxEventStatusPublished  OutboxEventStatus = "published"
	OutboxEventStatusFailed     OutboxEventStatus = "failed"
)

// OutboxEvent represents an event in the transactional outbox pattern.
// The row is written in the same transaction as the aggregate mutation that
// caused it and is immutable afterwards except for delivery bookkeeping.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent builds a pending outbox event with a fresh UUIDv7 id and a JSON
// payload. The id is the event's identity and the downstream idempotency key.
func NewEvent(eventType string, payload any) (*OutboxEvent, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal event payload")
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    OutboxEventStatusPending,
		Retries:   0,
	}, nil
}
