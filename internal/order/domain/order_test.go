package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turgayozgur/eshop-ordering/internal/errors"
)

func newAwaitingOrder() *Order {
	return &Order{
		ID:       42,
		BuyerID:  "B1",
		Status:   StatusAwaitingPayment,
		Total:    decimal.NewFromFloat(100.00),
		Currency: "usd",
	}
}

func TestOrder_SetPaid(t *testing.T) {
	t.Run("from awaiting_payment", func(t *testing.T) {
		order := newAwaitingOrder()

		err := order.SetPaid("tx-1")
		require.NoError(t, err)

		assert.Equal(t, StatusPaid, order.Status)
		require.NotNil(t, order.TransactionID)
		assert.Equal(t, "tx-1", *order.TransactionID)
	})

	t.Run("from paid is rejected", func(t *testing.T) {
		order := newAwaitingOrder()
		require.NoError(t, order.SetPaid("tx-1"))

		err := order.SetPaid("tx-2")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

		// Status and transaction unchanged
		assert.Equal(t, StatusPaid, order.Status)
		assert.Equal(t, "tx-1", *order.TransactionID)
	})

	t.Run("from confirmed is rejected", func(t *testing.T) {
		order := newAwaitingOrder()
		require.NoError(t, order.SetPaid("tx-1"))
		require.NoError(t, order.SetConfirmed())

		err := order.SetPaid("tx-2")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Equal(t, StatusConfirmed, order.Status)
	})
}

func TestOrder_SetConfirmed(t *testing.T) {
	t.Run("from paid", func(t *testing.T) {
		order := newAwaitingOrder()
		require.NoError(t, order.SetPaid("tx-1"))

		err := order.SetConfirmed()
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, order.Status)
	})

	t.Run("already confirmed is a no-op", func(t *testing.T) {
		order := newAwaitingOrder()
		require.NoError(t, order.SetPaid("tx-1"))
		require.NoError(t, order.SetConfirmed())

		err := order.SetConfirmed()
		assert.NoError(t, err)
		assert.Equal(t, StatusConfirmed, order.Status)
	})

	t.Run("from awaiting_payment is rejected", func(t *testing.T) {
		order := newAwaitingOrder()

		err := order.SetConfirmed()
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Equal(t, StatusAwaitingPayment, order.Status)
	})
}
