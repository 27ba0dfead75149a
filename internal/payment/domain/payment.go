// Package domain defines the payment domain types shared by the gateway
// client and the payment orchestrator.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
)

// Domain-specific errors for payment operations.
var (
	// ErrGatewayUnavailable indicates the gateway could not be reached within the
	// resilience policy: retries exhausted on transient failures or open breaker.
	ErrGatewayUnavailable = errors.Wrap(errors.ErrUnavailable, "payment gateway unavailable")

	// ErrInvalidAmount indicates a non-positive charge amount.
	ErrInvalidAmount = errors.Wrap(errors.ErrInvalidInput, "amount must be greater than zero")
)

// CardDetails carries the buyer's card data. Opaque to this core: forwarded
// to the gateway, never persisted.
type CardDetails struct {
	Number         string
	HolderName     string
	Expiration     string // MM/YY
	SecurityNumber string
}

// PaymentAttempt is one attempt to pay for an order, as submitted by the
// buyer. The orchestrator turns it into a gateway authorization.
type PaymentAttempt struct {
	OrderID int64
	BuyerID string
	Amount  decimal.Decimal
	Card    CardDetails
}

// AuthorizationRequest is the logical charge request sent to the gateway.
type AuthorizationRequest struct {
	BuyerID     string
	Amount      decimal.Decimal
	Currency    string
	Card        CardDetails
	Description string
	Metadata    map[string]string
}

// AuthorizationResponse is the gateway's verdict on a single charge.
// A decline is a normal business outcome, not an error.
type AuthorizationResponse struct {
	Approved      bool
	TransactionID string
	ErrorMessage  string
}

// Outcome is the per-attempt payment result handed to the saga. Not persisted
// directly; only its effect (order status + integration event) is.
type Outcome struct {
	Succeeded     bool
	TransactionID string
	ErrorMessage  string
	OccurredAt    time.Time
}

// SuccessOutcome builds a successful payment outcome.
func SuccessOutcome(transactionID string) Outcome {
	return Outcome{
		Succeeded:     true,
		TransactionID: transactionID,
		OccurredAt:    time.Now().UTC(),
	}
}

// FailureOutcome builds a failed payment outcome with a diagnostic message.
func FailureOutcome(errorMessage string) Outcome {
	return Outcome{
		Succeeded:    false,
		ErrorMessage: errorMessage,
		OccurredAt:   time.Now().UTC(),
	}
}
