package dto

import (
	"time"

	orderDomain "github.com/turgayozgur/eshop-ordering/internal/order/domain"
)

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID            int64     `json:"id"`
	BuyerID       string    `json:"buyer_id"`
	Status        string    `json:"status"`
	Total         string    `json:"total"`
	Currency      string    `json:"currency"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubmitPaymentResponse reports the result of a payment attempt.
type SubmitPaymentResponse struct {
	OrderID   int64 `json:"order_id"`
	Succeeded bool  `json:"succeeded"`
}

// MapOrderToResponse converts a domain order to an API response.
func MapOrderToResponse(order *orderDomain.Order) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		BuyerID:       order.BuyerID,
		Status:        string(order.Status),
		Total:         order.Total.String(),
		Currency:      order.Currency,
		TransactionID: order.TransactionID,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
