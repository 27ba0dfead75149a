// Package gateway implements the idempotent command gateway. Commands run
// inside a transaction together with a client request marker keyed by the
// caller supplied request id, so a redelivered command is detected and
// skipped without re-running the handler.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/idempotency/domain"
)

// ClientRequestRepository persists client request markers.
type ClientRequestRepository interface {
	Create(ctx context.Context, request *domain.ClientRequest) error
}

// Gateway routes commands through duplicate detection.
type Gateway interface {
	// Execute runs fn exactly once per request id. For a duplicate the
	// recorded outcome stands: Execute returns nil without invoking fn.
	// The marker insert and fn share one transaction, so a failed fn
	// releases the marker and the command can be retried.
	Execute(ctx context.Context, requestID uuid.UUID, commandName string, fn func(ctx context.Context) error) error
}

type gateway struct {
	txManager database.TxManager
	repo      ClientRequestRepository
	ttl       time.Duration
	logger    *slog.Logger
}

// New creates an idempotent command gateway. A zero ttl keeps markers forever.
func New(
	txManager database.TxManager,
	repo ClientRequestRepository,
	ttl time.Duration,
	logger *slog.Logger,
) Gateway {
	return &gateway{
		txManager: txManager,
		repo:      repo,
		ttl:       ttl,
		logger:    logger,
	}
}

func (g *gateway) Execute(
	ctx context.Context,
	requestID uuid.UUID,
	commandName string,
	fn func(ctx context.Context) error,
) error {
	err := g.txManager.WithTx(ctx, func(txCtx context.Context) error {
		request := domain.NewClientRequest(requestID, commandName, g.ttl)
		if err := g.repo.Create(txCtx, &request); err != nil {
			return err
		}
		return fn(txCtx)
	})

	if errors.Is(err, domain.ErrDuplicateRequest) {
		g.logger.Info("duplicate command skipped",
			slog.String("request_id", requestID.String()),
			slog.String("command", commandName),
		)
		return nil
	}

	return err
}
