package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/turgayozgur/eshop-ordering/internal/app"
	"github.com/turgayozgur/eshop-ordering/internal/config"
	orderDomain "github.com/turgayozgur/eshop-ordering/internal/order/domain"
)

// RunWorker starts the integration event consumer with graceful shutdown
// support. The consumer reads payment events from the broker and routes them
// through the idempotent confirmation path, so redelivered events leave the
// order untouched. Blocks until receiving SIGINT/SIGTERM.
func RunWorker(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	orderUseCase, err := container.OrderUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize order use case: %w", err)
	}

	consumer, err := container.Consumer()
	if err != nil {
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}

	// Handler registration happens once, before consuming starts
	err = consumer.Register(orderDomain.EventTypePaymentSucceeded,
		func(ctx context.Context, eventID uuid.UUID, body []byte) error {
			var payload orderDomain.PaymentSucceededPayload
			if err := json.Unmarshal(body, &payload); err != nil {
				logger.Warn("malformed payment.succeeded payload dropped",
					slog.String("event_id", eventID.String()),
				)
				return nil
			}
			return orderUseCase.ConfirmPayment(ctx, eventID, payload.OrderID)
		})
	if err != nil {
		return fmt.Errorf("failed to register payment.succeeded handler: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer error: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}
