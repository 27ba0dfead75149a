package app

import (
	"fmt"

	paymentGateway "github.com/turgayozgur/eshop-ordering/internal/payment/gateway"
	paymentUsecase "github.com/turgayozgur/eshop-ordering/internal/payment/usecase"
	appvalidation "github.com/turgayozgur/eshop-ordering/internal/validation"
)

// GatewayClient returns the resilient payment gateway client instance.
func (c *Container) GatewayClient() (*paymentGateway.Client, error) {
	var err error
	c.gatewayClientInit.Do(func() {
		c.gatewayClient, err = c.initGatewayClient()
		if err != nil {
			c.initErrors["gatewayClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["gatewayClient"]; exists {
		return nil, storedErr
	}
	return c.gatewayClient, nil
}

// PaymentUseCase returns the payment use case instance.
func (c *Container) PaymentUseCase() (paymentUsecase.UseCase, error) {
	var err error
	c.paymentUseCaseInit.Do(func() {
		c.paymentUseCase, err = c.initPaymentUseCase()
		if err != nil {
			c.initErrors["paymentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["paymentUseCase"]; exists {
		return nil, storedErr
	}
	return c.paymentUseCase, nil
}

// initGatewayClient creates the gateway client with the configured resilience policy.
func (c *Container) initGatewayClient() (*paymentGateway.Client, error) {
	policy := paymentGateway.Policy{
		MaxAttempts:           c.config.GatewayMaxAttempts,
		AttemptTimeout:        c.config.GatewayAttemptTimeout,
		InitialBackoff:        c.config.GatewayInitialBackoff,
		BreakerFailureRatio:   c.config.GatewayBreakerFailureRatio,
		BreakerMinRequests:    c.config.GatewayBreakerMinRequests,
		BreakerSamplingWindow: c.config.GatewayBreakerSamplingWindow,
		BreakerOpenDuration:   c.config.GatewayBreakerOpenDuration,
	}

	return paymentGateway.NewClient(c.config.GatewayURL, policy, c.Logger()), nil
}

// initPaymentUseCase creates the payment use case with all its dependencies.
func (c *Container) initPaymentUseCase() (paymentUsecase.UseCase, error) {
	if err := appvalidation.CurrencyCode.Validate(c.config.GatewayCurrency); err != nil {
		return nil, fmt.Errorf("invalid gateway currency %q: %w", c.config.GatewayCurrency, err)
	}

	client, err := c.GatewayClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway client for payment use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for payment use case: %w", err)
	}

	return paymentUsecase.New(client, c.config.GatewayCurrency, c.Logger(), businessMetrics), nil
}
