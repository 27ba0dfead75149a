// Package usecase implements the outbox drain loop that delivers logged
// integration events to the broker.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/metrics"
	"github.com/turgayozgur/eshop-ordering/internal/outbox/domain"
)

// Config holds outbox use case configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
	MarkPublished(ctx context.Context, eventID uuid.UUID) error
}

// EventPublisher delivers a logged event to the broker. An error means the
// delivery is ambiguous or failed; the event stays pending and is retried.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
	Notify()
}

// OutboxUseCase drains pending outbox events and publishes them to the event
// bus. Each batch runs in its own short transaction so the drainer never
// blocks the writers appending events under their own transactions.
type OutboxUseCase struct {
	config    Config
	txManager database.TxManager
	repo      OutboxEventRepository
	publisher EventPublisher
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger
	wake      chan struct{}
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	repo OutboxEventRepository,
	publisher EventPublisher,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *OutboxUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &OutboxUseCase{
		config:    config,
		txManager: txManager,
		repo:      repo,
		publisher: publisher,
		metrics:   businessMetrics,
		logger:    logger,
		wake:      make(chan struct{}, 1),
	}
}

// Notify nudges the drain loop to run ahead of the next tick. Used by the
// saga steps right after a transaction that appended an event commits.
// Safe to call from any goroutine; redundant nudges collapse into one.
func (uc *OutboxUseCase) Notify() {
	select {
	case uc.wake <- struct{}{}:
	default:
	}
}

// Start starts the outbox event processing loop
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox event drainer",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox event drainer")
			}
			return ctx.Err()
		case <-uc.wake:
		case <-ticker.C:
		}

		if err := uc.ProcessEvents(ctx); err != nil {
			if uc.logger != nil {
				uc.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents drains one batch of pending events inside a single short
// transaction: claim with SKIP LOCKED, publish each to the broker, and record
// the per-event result. A publish error never fails the batch; the event's
// retry bookkeeping is updated and the drainer moves on.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.repo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("publishing outbox events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.publishEvent(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to publish outbox event",
						slog.String("event_id", event.ID.String()),
						slog.String("event_type", event.EventType),
						slog.Any("error", err),
					)
				}
				uc.metrics.RecordOperation(ctx, "outbox", "publish", "error")

				// Ambiguous or failed delivery: keep the event retryable
				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg
				event.Status = domain.OutboxEventStatusPending

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}

				if err := uc.repo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			uc.metrics.RecordOperation(ctx, "outbox", "publish", "success")

			if err := uc.repo.MarkPublished(ctx, event.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

// publishEvent hands a single claimed event to the broker publisher
func (uc *OutboxUseCase) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	// Record the claim before the broker round-trip
	event.Status = domain.OutboxEventStatusInProgress
	if err := uc.repo.Update(ctx, event); err != nil {
		return err
	}

	return uc.publisher.Publish(ctx, event)
}
