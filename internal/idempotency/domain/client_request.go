// Package domain defines the client request marker used to deduplicate
// command handling.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
)

// ErrDuplicateRequest indicates a command with this request id was already
// handled.
var ErrDuplicateRequest = errors.Wrap(errors.ErrConflict, "request already handled")

// ClientRequest marks a command as handled. The id is supplied by the caller
// (for saga commands it is the integration event id), so redeliveries collide
// on the primary key.
type ClientRequest struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// NewClientRequest builds a marker for the given request id and command name.
// A zero ttl means the marker never expires.
func NewClientRequest(id uuid.UUID, name string, ttl time.Duration) ClientRequest {
	now := time.Now().UTC()
	request := ClientRequest{
		ID:        id,
		Name:      name,
		CreatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		request.ExpiresAt = &expiresAt
	}
	return request
}
