// Package usecase implements the payment orchestration on top of the gateway
// client. Whatever goes wrong downstream, the orchestrator always resolves a
// payment attempt to a definite outcome.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turgayozgur/eshop-ordering/internal/metrics"
	"github.com/turgayozgur/eshop-ordering/internal/payment/domain"
)

// Authorizer submits an authorization request to the payment provider.
type Authorizer interface {
	Authorize(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationResponse, error)
}

// UseCase resolves payment attempts to outcomes.
type UseCase interface {
	ProcessPayment(ctx context.Context, attempt domain.PaymentAttempt) domain.Outcome
}

type useCase struct {
	authorizer      Authorizer
	currency        string
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
}

// New creates the payment use case. The currency is applied to every charge.
func New(
	authorizer Authorizer,
	currency string,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) UseCase {
	return &useCase{
		authorizer:      authorizer,
		currency:        currency,
		logger:          logger,
		businessMetrics: businessMetrics,
	}
}

// ProcessPayment charges the buyer's card for the attempt. It never returns
// an error and never panics: any gateway failure, decline or unexpected
// condition resolves to a failure outcome.
func (u *useCase) ProcessPayment(ctx context.Context, attempt domain.PaymentAttempt) (outcome domain.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("payment processing panicked",
				slog.Int64("order_id", attempt.OrderID),
				slog.Any("panic", r),
			)
			outcome = domain.FailureOutcome("payment processing failed")
		}
		status := "failed"
		if outcome.Succeeded {
			status = "succeeded"
		}
		u.businessMetrics.RecordOperation(ctx, "payment", "process", status)
		u.businessMetrics.RecordDuration(ctx, "payment", "process", time.Since(start), status)
	}()

	req := domain.AuthorizationRequest{
		BuyerID:     attempt.BuyerID,
		Amount:      attempt.Amount,
		Currency:    u.currency,
		Card:        attempt.Card,
		Description: fmt.Sprintf("Payment for order by %s", attempt.BuyerID),
		Metadata: map[string]string{
			"order_id": fmt.Sprintf("%d", attempt.OrderID),
			"buyer_id": attempt.BuyerID,
		},
	}

	resp, err := u.authorizer.Authorize(ctx, req)
	if err != nil {
		u.logger.Warn("payment authorization failed",
			slog.Int64("order_id", attempt.OrderID),
			slog.Any("error", err),
		)
		return domain.FailureOutcome("payment gateway unavailable")
	}

	if !resp.Approved {
		u.logger.Info("payment declined",
			slog.Int64("order_id", attempt.OrderID),
			slog.String("reason", resp.ErrorMessage),
		)
		return domain.FailureOutcome(declineMessage(resp.ErrorMessage))
	}

	u.logger.Info("payment authorized",
		slog.Int64("order_id", attempt.OrderID),
		slog.String("transaction_id", resp.TransactionID),
	)
	return domain.SuccessOutcome(resp.TransactionID)
}

func declineMessage(reason string) string {
	if reason == "" {
		return "payment declined"
	}
	return fmt.Sprintf("payment declined: %s", reason)
}
