package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/turgayozgur/eshop-ordering/internal/metrics"
	"github.com/turgayozgur/eshop-ordering/internal/payment/domain"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(
	ctx context.Context,
	req domain.AuthorizationRequest,
) (*domain.AuthorizationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationResponse), args.Error(1)
}

func testAttempt() domain.PaymentAttempt {
	return domain.PaymentAttempt{
		OrderID: 42,
		BuyerID: "buyer-1",
		Amount:  decimal.NewFromFloat(49.90),
		Card: domain.CardDetails{
			Number:         "4242424242424242",
			HolderName:     "JOHN DOE",
			Expiration:     "12/30",
			SecurityNumber: "123",
		},
	}
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	noopMetrics := metrics.NewNoOpBusinessMetrics()

	t.Run("approved authorization yields success outcome", func(t *testing.T) {
		authorizer := new(mockAuthorizer)
		authorizer.On("Authorize", ctx, mock.MatchedBy(func(req domain.AuthorizationRequest) bool {
			return req.BuyerID == "buyer-1" &&
				req.Currency == "usd" &&
				req.Description == "Payment for order by buyer-1" &&
				req.Metadata["order_id"] == "42" &&
				req.Metadata["buyer_id"] == "buyer-1"
		})).Return(&domain.AuthorizationResponse{Approved: true, TransactionID: "tx-1"}, nil)

		uc := New(authorizer, "usd", logger, noopMetrics)
		outcome := uc.ProcessPayment(ctx, testAttempt())

		assert.True(t, outcome.Succeeded)
		assert.Equal(t, "tx-1", outcome.TransactionID)
		assert.False(t, outcome.OccurredAt.IsZero())
		authorizer.AssertExpectations(t)
	})

	t.Run("declined authorization yields failure outcome", func(t *testing.T) {
		authorizer := new(mockAuthorizer)
		authorizer.On("Authorize", ctx, mock.Anything).
			Return(&domain.AuthorizationResponse{Approved: false, ErrorMessage: "insufficient funds"}, nil)

		uc := New(authorizer, "usd", logger, noopMetrics)
		outcome := uc.ProcessPayment(ctx, testAttempt())

		assert.False(t, outcome.Succeeded)
		assert.Equal(t, "payment declined: insufficient funds", outcome.ErrorMessage)
		assert.Empty(t, outcome.TransactionID)
	})

	t.Run("gateway error yields failure outcome", func(t *testing.T) {
		authorizer := new(mockAuthorizer)
		authorizer.On("Authorize", ctx, mock.Anything).
			Return(nil, domain.ErrGatewayUnavailable)

		uc := New(authorizer, "usd", logger, noopMetrics)
		outcome := uc.ProcessPayment(ctx, testAttempt())

		assert.False(t, outcome.Succeeded)
		assert.Equal(t, "payment gateway unavailable", outcome.ErrorMessage)
	})

	t.Run("panic resolves to failure outcome", func(t *testing.T) {
		authorizer := new(mockAuthorizer)
		authorizer.On("Authorize", ctx, mock.Anything).
			Run(func(args mock.Arguments) { panic("boom") }).
			Return(nil, nil)

		uc := New(authorizer, "usd", logger, noopMetrics)
		outcome := uc.ProcessPayment(ctx, testAttempt())

		assert.False(t, outcome.Succeeded)
		assert.Equal(t, "payment processing failed", outcome.ErrorMessage)
	})
}
