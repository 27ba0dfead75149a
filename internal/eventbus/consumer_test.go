package eventbus

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
)

func newTestConsumer() *Consumer {
	return &Consumer{
		handlers: make(map[string]Handler),
		logger:   slog.New(slog.DiscardHandler),
	}
}

func TestConsumerRegister(t *testing.T) {
	noop := func(ctx context.Context, eventID uuid.UUID, body []byte) error { return nil }

	t.Run("registers handler", func(t *testing.T) {
		c := newTestConsumer()
		require.NoError(t, c.Register("payment.succeeded", noop))
	})

	t.Run("rejects duplicate event type", func(t *testing.T) {
		c := newTestConsumer()
		require.NoError(t, c.Register("payment.succeeded", noop))
		err := c.Register("payment.succeeded", noop)
		require.Error(t, err)
	})

	t.Run("rejects registration after start", func(t *testing.T) {
		c := newTestConsumer()
		c.started = true
		err := c.Register("payment.succeeded", noop)
		require.Error(t, err)
	})
}

func TestConsumerDispatch(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.Must(uuid.NewV7())

	t.Run("routes to registered handler", func(t *testing.T) {
		c := newTestConsumer()
		var gotID uuid.UUID
		var gotBody []byte
		require.NoError(t, c.Register("payment.succeeded", func(ctx context.Context, id uuid.UUID, body []byte) error {
			gotID = id
			gotBody = body
			return nil
		}))

		err := c.dispatch(ctx, "payment.succeeded", eventID.String(), []byte(`{"order_id":42}`))
		require.NoError(t, err)
		assert.Equal(t, eventID, gotID)
		assert.JSONEq(t, `{"order_id":42}`, string(gotBody))
	})

	t.Run("drops unknown event type", func(t *testing.T) {
		c := newTestConsumer()
		err := c.dispatch(ctx, "payment.unknown", eventID.String(), nil)
		require.NoError(t, err)
	})

	t.Run("drops malformed event id", func(t *testing.T) {
		c := newTestConsumer()
		called := false
		require.NoError(t, c.Register("payment.succeeded", func(ctx context.Context, id uuid.UUID, body []byte) error {
			called = true
			return nil
		}))

		err := c.dispatch(ctx, "payment.succeeded", "not-a-uuid", nil)
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("propagates handler error", func(t *testing.T) {
		c := newTestConsumer()
		handlerErr := errors.New("handler failed")
		require.NoError(t, c.Register("payment.succeeded", func(ctx context.Context, id uuid.UUID, body []byte) error {
			return handlerErr
		}))

		err := c.dispatch(ctx, "payment.succeeded", eventID.String(), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, handlerErr))
	})
}
