// Package http provides HTTP handlers for the order payment saga: submitting
// payment attempts, confirming payments and observing order state.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/httputil"
	"github.com/turgayozgur/eshop-ordering/internal/order/http/dto"
	orderUseCase "github.com/turgayozgur/eshop-ordering/internal/order/usecase"
	paymentDomain "github.com/turgayozgur/eshop-ordering/internal/payment/domain"
	customValidation "github.com/turgayozgur/eshop-ordering/internal/validation"
)

// OrderHandler handles HTTP requests for order payment operations.
type OrderHandler struct {
	orderUseCase orderUseCase.UseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler with required dependencies.
func NewOrderHandler(uc orderUseCase.UseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: uc,
		logger:       logger,
	}
}

func parseOrderID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id: must be a positive integer")
	}
	return id, nil
}

// SubmitPaymentHandler charges the buyer's card for the order.
// POST /v1/orders/:id/payments
// Returns 200 OK with the attempt result. A declined payment is a normal
// response with succeeded=false, not an HTTP error.
func (h *OrderHandler) SubmitPaymentHandler(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	card := paymentDomain.CardDetails{
		Number:         req.CardNumber,
		HolderName:     req.CardHolderName,
		Expiration:     req.CardExpiration,
		SecurityNumber: req.CardSecurityNumber,
	}

	succeeded, err := h.orderUseCase.SubmitPayment(c.Request.Context(), orderID, card)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitPaymentResponse{
		OrderID:   orderID,
		Succeeded: succeeded,
	})
}

// ConfirmPaymentHandler confirms a paid order.
// POST /v1/orders/:id/confirm-payment
// The event id in the body keys duplicate detection: retrying with the same
// id returns 204 without re-running the confirmation.
func (h *OrderHandler) ConfirmPaymentHandler(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid event id: must be a UUID"),
			h.logger,
		)
		return
	}

	if err := h.orderUseCase.ConfirmPayment(c.Request.Context(), eventID, orderID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// GetHandler retrieves an order by id.
// GET /v1/orders/:id
// Returns 200 OK with the order's current saga state.
func (h *OrderHandler) GetHandler(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	order, err := h.orderUseCase.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}
