package domain

import "time"

// Integration event types published by the payment saga. The outbox row's
// event id doubles as the downstream idempotency key.
const (
	EventTypePaymentSucceeded = "payment.succeeded"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentConfirmed = "payment.confirmed"
)

// PaymentSucceededPayload is the payload of a payment.succeeded event.
type PaymentSucceededPayload struct {
	OrderID       int64     `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentFailedPayload is the payload of a payment.failed event.
type PaymentFailedPayload struct {
	OrderID      int64     `json:"order_id"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PaymentConfirmedPayload is the payload of a payment.confirmed event.
type PaymentConfirmedPayload struct {
	OrderID       int64     `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
