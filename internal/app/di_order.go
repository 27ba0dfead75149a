package app

import (
	"fmt"

	idempotencyGateway "github.com/turgayozgur/eshop-ordering/internal/idempotency/gateway"
	idempotencyRepository "github.com/turgayozgur/eshop-ordering/internal/idempotency/repository"
	orderRepository "github.com/turgayozgur/eshop-ordering/internal/order/repository"
	orderUsecase "github.com/turgayozgur/eshop-ordering/internal/order/usecase"
)

// OrderRepository returns the order repository instance.
func (c *Container) OrderRepository() (orderUsecase.OrderRepository, error) {
	var err error
	c.orderRepoInit.Do(func() {
		c.orderRepo, err = c.initOrderRepository()
		if err != nil {
			c.initErrors["orderRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// ClientRequestRepository returns the client request repository instance.
func (c *Container) ClientRequestRepository() (idempotencyGateway.ClientRequestRepository, error) {
	var err error
	c.clientRequestRepoInit.Do(func() {
		c.clientRequestRepo, err = c.initClientRequestRepository()
		if err != nil {
			c.initErrors["clientRequestRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientRequestRepo"]; exists {
		return nil, storedErr
	}
	return c.clientRequestRepo, nil
}

// CommandGateway returns the idempotent command gateway instance.
func (c *Container) CommandGateway() (idempotencyGateway.Gateway, error) {
	var err error
	c.commandGatewayInit.Do(func() {
		c.commandGateway, err = c.initCommandGateway()
		if err != nil {
			c.initErrors["commandGateway"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["commandGateway"]; exists {
		return nil, storedErr
	}
	return c.commandGateway, nil
}

// OrderUseCase returns the order use case instance.
func (c *Container) OrderUseCase() (orderUsecase.UseCase, error) {
	var err error
	c.orderUseCaseInit.Do(func() {
		c.orderUseCase, err = c.initOrderUseCase()
		if err != nil {
			c.initErrors["orderUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["orderUseCase"]; exists {
		return nil, storedErr
	}
	return c.orderUseCase, nil
}

// initOrderRepository creates the order repository instance.
func (c *Container) initOrderRepository() (orderUsecase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return orderRepository.NewMySQLOrderRepository(db), nil
	case "postgres":
		return orderRepository.NewPostgreSQLOrderRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initClientRequestRepository creates the client request repository instance.
func (c *Container) initClientRequestRepository() (idempotencyGateway.ClientRequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client request repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return idempotencyRepository.NewMySQLClientRequestRepository(db), nil
	case "postgres":
		return idempotencyRepository.NewPostgreSQLClientRequestRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCommandGateway creates the idempotent command gateway.
func (c *Container) initCommandGateway() (idempotencyGateway.Gateway, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for command gateway: %w", err)
	}

	repo, err := c.ClientRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client request repository for command gateway: %w", err)
	}

	return idempotencyGateway.New(txManager, repo, c.config.IdempotencyTTL, c.Logger()), nil
}

// initOrderUseCase creates the order use case with all its dependencies.
func (c *Container) initOrderUseCase() (orderUsecase.UseCase, error) {
	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for order use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for order use case: %w", err)
	}

	processor, err := c.PaymentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get payment use case for order use case: %w", err)
	}

	commandGateway, err := c.CommandGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get command gateway for order use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
	}

	outboxUC, err := c.OutboxUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox use case for order use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for order use case: %w", err)
	}

	return orderUsecase.New(
		orderRepo,
		outboxRepo,
		processor,
		commandGateway,
		txManager,
		outboxUC,
		c.Logger(),
		businessMetrics,
	), nil
}
