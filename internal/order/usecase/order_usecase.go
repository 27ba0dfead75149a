// Package usecase implements the payment saga steps over the order
// aggregate: applying payment outcomes, confirming payments and the query
// surface.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/metrics"
	"github.com/turgayozgur/eshop-ordering/internal/order/domain"
	outboxdomain "github.com/turgayozgur/eshop-ordering/internal/outbox/domain"
	paymentdomain "github.com/turgayozgur/eshop-ordering/internal/payment/domain"
)

// OrderRepository persists order aggregates.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

// OutboxEventRepository appends integration events inside the caller's
// transaction.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxdomain.OutboxEvent) error
}

// PaymentProcessor resolves a payment attempt to an outcome.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, attempt paymentdomain.PaymentAttempt) paymentdomain.Outcome
}

// CommandGateway routes commands through duplicate detection.
type CommandGateway interface {
	Execute(ctx context.Context, requestID uuid.UUID, commandName string, fn func(ctx context.Context) error) error
}

// Notifier nudges the outbox drain loop after a commit that appended events.
type Notifier interface {
	Notify()
}

// UseCase defines the order payment saga operations.
type UseCase interface {
	// SubmitPayment charges the card for the order and applies the outcome.
	// The returned bool reports whether the payment succeeded; an error means
	// the outcome could not be recorded, not that the payment failed.
	SubmitPayment(ctx context.Context, orderID int64, card paymentdomain.CardDetails) (bool, error)

	// OnPaymentAttempt applies a payment outcome to the order and appends the
	// matching integration event to the outbox in the same transaction.
	OnPaymentAttempt(ctx context.Context, orderID int64, outcome paymentdomain.Outcome) error

	// ConfirmPayment handles a payment.succeeded integration event: moves the
	// order to confirmed and appends payment.confirmed, keyed by the event id
	// so redeliveries are absorbed.
	ConfirmPayment(ctx context.Context, eventID uuid.UUID, orderID int64) error

	// GetOrder returns the order by id.
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}

const confirmCommandName = "confirm_order_payment"

type useCase struct {
	orderRepo       OrderRepository
	outboxRepo      OutboxEventRepository
	processor       PaymentProcessor
	commandGateway  CommandGateway
	txManager       database.TxManager
	notifier        Notifier
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics
}

// New creates the order use case.
func New(
	orderRepo OrderRepository,
	outboxRepo OutboxEventRepository,
	processor PaymentProcessor,
	commandGateway CommandGateway,
	txManager database.TxManager,
	notifier Notifier,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) UseCase {
	return &useCase{
		orderRepo:       orderRepo,
		outboxRepo:      outboxRepo,
		processor:       processor,
		commandGateway:  commandGateway,
		txManager:       txManager,
		notifier:        notifier,
		logger:          logger,
		businessMetrics: businessMetrics,
	}
}

func (u *useCase) SubmitPayment(
	ctx context.Context,
	orderID int64,
	card paymentdomain.CardDetails,
) (bool, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	attempt := paymentdomain.PaymentAttempt{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Amount:  order.Total,
		Card:    card,
	}

	outcome := u.processor.ProcessPayment(ctx, attempt)

	if err := u.OnPaymentAttempt(ctx, orderID, outcome); err != nil {
		return false, err
	}

	return outcome.Succeeded, nil
}

func (u *useCase) OnPaymentAttempt(
	ctx context.Context,
	orderID int64,
	outcome paymentdomain.Outcome,
) error {
	start := time.Now()
	status := "error"
	defer func() {
		u.businessMetrics.RecordOperation(ctx, "order", "payment_attempt", status)
		u.businessMetrics.RecordDuration(ctx, "order", "payment_attempt", time.Since(start), status)
	}()

	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}

		if outcome.Succeeded {
			if err := order.SetPaid(outcome.TransactionID); err != nil {
				return err
			}
			if err := u.orderRepo.Update(txCtx, order); err != nil {
				return err
			}

			event, err := outboxdomain.NewEvent(domain.EventTypePaymentSucceeded, domain.PaymentSucceededPayload{
				OrderID:       order.ID,
				TransactionID: outcome.TransactionID,
				OccurredAt:    outcome.OccurredAt,
			})
			if err != nil {
				return err
			}
			return u.outboxRepo.Create(txCtx, event)
		}

		// Failed attempts leave the order untouched so the buyer can retry.
		event, err := outboxdomain.NewEvent(domain.EventTypePaymentFailed, domain.PaymentFailedPayload{
			OrderID:      order.ID,
			ErrorMessage: outcome.ErrorMessage,
			OccurredAt:   outcome.OccurredAt,
		})
		if err != nil {
			return err
		}
		return u.outboxRepo.Create(txCtx, event)
	})
	if err != nil {
		return err
	}

	if outcome.Succeeded {
		status = "succeeded"
	} else {
		status = "failed"
	}

	u.logger.Info("payment outcome recorded",
		slog.Int64("order_id", orderID),
		slog.Bool("succeeded", outcome.Succeeded),
	)

	u.notifier.Notify()
	return nil
}

func (u *useCase) ConfirmPayment(ctx context.Context, eventID uuid.UUID, orderID int64) error {
	err := u.commandGateway.Execute(ctx, eventID, confirmCommandName, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}

		alreadyConfirmed := order.Status == domain.StatusConfirmed
		if err := order.SetConfirmed(); err != nil {
			return err
		}
		if alreadyConfirmed {
			return nil
		}
		if err := u.orderRepo.Update(txCtx, order); err != nil {
			return err
		}

		transactionID := ""
		if order.TransactionID != nil {
			transactionID = *order.TransactionID
		}

		event, err := outboxdomain.NewEvent(domain.EventTypePaymentConfirmed, domain.PaymentConfirmedPayload{
			OrderID:       order.ID,
			TransactionID: transactionID,
			ConfirmedAt:   time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return u.outboxRepo.Create(txCtx, event)
	})
	if err != nil {
		return err
	}

	u.businessMetrics.RecordOperation(ctx, "order", "confirm_payment", "success")
	u.logger.Info("order payment confirmed",
		slog.Int64("order_id", orderID),
		slog.String("event_id", eventID.String()),
	)

	u.notifier.Notify()
	return nil
}

func (u *useCase) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, orderID)
}
