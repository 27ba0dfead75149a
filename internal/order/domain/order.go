// Package domain defines the core order domain entities and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
)

// Status represents the payment lifecycle status of an order.
// Transitions are monotonic: awaiting_payment -> paid -> confirmed.
type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusConfirmed       Status = "confirmed"
)

// Order is the aggregate root mutated by the payment saga. Line items live
// upstream in the placing flow; this core only owns the status, totals and
// the recorded payment transaction.
type Order struct {
	ID            int64
	BuyerID       string
	Status        Status
	Total         decimal.Decimal
	Currency      string
	TransactionID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Domain-specific errors for order operations.
var (
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrInvalidStatusTransition indicates an attempt to move the order status backwards
	// or skip a step.
	ErrInvalidStatusTransition = errors.Wrap(errors.ErrConflict, "invalid order status transition")
)

// SetPaid transitions the order from awaiting_payment to paid and records the
// gateway transaction. Any other starting status is rejected: status moves in
// one direction only.
func (o *Order) SetPaid(transactionID string) error {
	if o.Status != StatusAwaitingPayment {
		return errors.Wrapf(ErrInvalidStatusTransition, "cannot mark order %d paid from status %q", o.ID, o.Status)
	}
	o.Status = StatusPaid
	o.TransactionID = &transactionID
	return nil
}

// SetConfirmed transitions the order from paid to confirmed. Confirming an
// already confirmed order is a no-op so that redelivered confirmation commands
// stay harmless.
func (o *Order) SetConfirmed() error {
	switch o.Status {
	case StatusConfirmed:
		return nil
	case StatusPaid:
		o.Status = StatusConfirmed
		return nil
	default:
		return errors.Wrapf(ErrInvalidStatusTransition, "cannot confirm order %d from status %q", o.ID, o.Status)
	}
}
