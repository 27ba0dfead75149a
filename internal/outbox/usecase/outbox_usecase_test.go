package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/outbox/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type passthroughTxManager struct{}

func (m *passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *mockOutboxRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOutboxRepository) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		Interval:   50 * time.Millisecond,
		BatchSize:  10,
		MaxRetries: 3,
	}
}

func pendingEvent(t *testing.T) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewEvent("payment.succeeded", map[string]any{"order_id": 42})
	require.NoError(t, err)
	return event
}

func TestProcessEvents(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("publishes pending events and marks them", func(t *testing.T) {
		event := pendingEvent(t)

		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusInProgress
		})).Return(nil)
		repo.On("MarkPublished", mock.Anything, event.ID).Return(nil)

		publisher := new(mockEventPublisher)
		publisher.On("Publish", mock.Anything, event).Return(nil)

		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("empty backlog is a no-op", func(t *testing.T) {
		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{}, nil)

		publisher := new(mockEventPublisher)
		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure keeps event pending with retry bookkeeping", func(t *testing.T) {
		event := pendingEvent(t)

		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		publisher := new(mockEventPublisher)
		publisher.On("Publish", mock.Anything, event).Return(errors.New("broker unreachable"))

		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, event.Retries)
		assert.Equal(t, domain.OutboxEventStatusPending, event.Status)
		require.NotNil(t, event.LastError)
		assert.Equal(t, "broker unreachable", *event.LastError)
		repo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
	})

	t.Run("event moves to failed at max retries", func(t *testing.T) {
		event := pendingEvent(t)
		event.Retries = 2

		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		publisher := new(mockEventPublisher)
		publisher.On("Publish", mock.Anything, event).Return(errors.New("broker unreachable"))

		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, event.Retries)
		assert.Equal(t, domain.OutboxEventStatusFailed, event.Status)
	})

	t.Run("one failing event does not block the rest of the batch", func(t *testing.T) {
		bad := pendingEvent(t)
		good := pendingEvent(t)

		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{bad, good}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkPublished", mock.Anything, good.ID).Return(nil)

		publisher := new(mockEventPublisher)
		publisher.On("Publish", mock.Anything, bad).Return(errors.New("broker unreachable"))
		publisher.On("Publish", mock.Anything, good).Return(nil)

		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		err := uc.ProcessEvents(ctx)
		require.NoError(t, err)
		repo.AssertCalled(t, "MarkPublished", mock.Anything, good.ID)
	})
}

func TestStart(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("stops on context cancellation", func(t *testing.T) {
		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{}, nil).Maybe()

		publisher := new(mockEventPublisher)
		uc := NewOutboxUseCase(testConfig(), &passthroughTxManager{}, repo, publisher, nil, logger)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- uc.Start(ctx)
		}()

		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("drainer did not stop after context cancellation")
		}
	})

	t.Run("notify wakes the loop ahead of the tick", func(t *testing.T) {
		event := pendingEvent(t)

		processed := make(chan struct{})
		repo := new(mockOutboxRepository)
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil).Once().
			Run(func(args mock.Arguments) { close(processed) })
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{}, nil).Maybe()
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkPublished", mock.Anything, event.ID).Return(nil)

		publisher := new(mockEventPublisher)
		publisher.On("Publish", mock.Anything, event).Return(nil)

		config := testConfig()
		config.Interval = time.Hour // only Notify can trigger a drain

		uc := NewOutboxUseCase(config, &passthroughTxManager{}, repo, publisher, nil, logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- uc.Start(ctx)
		}()

		uc.Notify()

		select {
		case <-processed:
		case <-time.After(time.Second):
			t.Fatal("notify did not wake the drain loop")
		}

		cancel()
		<-done
	})
}
