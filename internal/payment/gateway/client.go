// Package gateway implements the resilient HTTP client for the external
// payment provider: bounded retries with jittered exponential backoff behind
// a circuit breaker.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/payment/domain"
	appvalidation "github.com/turgayozgur/eshop-ordering/internal/validation"
)

// Policy holds the resilience knobs applied to every gateway call.
type Policy struct {
	// MaxAttempts is the total number of tries per authorization (first try + retries).
	MaxAttempts int
	// AttemptTimeout bounds a single HTTP attempt; exceeding it counts as a
	// transient failure.
	AttemptTimeout time.Duration
	// InitialBackoff is the first retry delay; subsequent delays grow
	// exponentially with randomized jitter.
	InitialBackoff time.Duration
	// BreakerFailureRatio opens the breaker when the rolling failure ratio
	// meets or exceeds it.
	BreakerFailureRatio float64
	// BreakerMinRequests is the minimum sampled requests before the breaker
	// can open.
	BreakerMinRequests int
	// BreakerSamplingWindow is the rolling window over which failures are counted.
	BreakerSamplingWindow time.Duration
	// BreakerOpenDuration is how long the breaker stays open before half-opening.
	BreakerOpenDuration time.Duration
}

// DefaultPolicy returns the standard resilience policy for the payment gateway.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:           3,
		AttemptTimeout:        5 * time.Second,
		InitialBackoff:        500 * time.Millisecond,
		BreakerFailureRatio:   0.5,
		BreakerMinRequests:    5,
		BreakerSamplingWindow: time.Minute,
		BreakerOpenDuration:   30 * time.Second,
	}
}

var decimalHundred = decimal.NewFromInt(100)

// chargeRequest is the wire shape of a charge sent to the provider.
type chargeRequest struct {
	BuyerID            string            `json:"buyer_id"`
	Amount             int64             `json:"amount"` // minor units (cents)
	Currency           string            `json:"currency"`
	CardNumber         string            `json:"card_number"`
	CardHolderName     string            `json:"card_holder_name"`
	CardExpiration     string            `json:"card_expiration"` // MM/YY
	CardSecurityNumber string            `json:"card_security_number"`
	Description        string            `json:"description,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// chargeResponse is the wire shape of the provider's verdict.
type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Client issues charge requests to the external payment provider under the
// resilience policy. A decline comes back as a non-approved response; an
// error return always means the provider could not be consulted.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     Policy
	breaker    *gobreaker.CircuitBreaker[*domain.AuthorizationResponse]
	logger     *slog.Logger
}

// NewClient creates a gateway client with the given base URL and policy.
func NewClient(baseURL string, policy Policy, logger *slog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:     "payment-gateway",
		Interval: policy.BreakerSamplingWindow,
		Timeout:  policy.BreakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(policy.BreakerMinRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= policy.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state change",
					slog.String("name", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			}
		},
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		policy:     policy,
		breaker:    gobreaker.NewCircuitBreaker[*domain.AuthorizationResponse](settings),
		logger:     logger,
	}
}

// Authorize issues a single logical charge under the resilience policy.
// Transient failures (timeouts, 5xx) are retried up to MaxAttempts with
// jittered exponential backoff; an open breaker or exhausted retries returns
// a declared ErrGatewayUnavailable, never a crash.
func (c *Client) Authorize(
	ctx context.Context,
	req domain.AuthorizationRequest,
) (*domain.AuthorizationResponse, error) {
	if err := (appvalidation.PositiveAmount{}).Validate(req.Amount); err != nil {
		return nil, domain.ErrInvalidAmount
	}

	resp, err := c.breaker.Execute(func() (*domain.AuthorizationResponse, error) {
		return c.authorizeWithRetry(ctx, req)
	})
	if err != nil {
		if apperrors.Is(err, gobreaker.ErrOpenState) || apperrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.Wrap(domain.ErrGatewayUnavailable, "circuit breaker open")
		}
		return nil, err
	}

	return resp, nil
}

// authorizeWithRetry runs the per-attempt call under the retry policy.
func (c *Client) authorizeWithRetry(
	ctx context.Context,
	req domain.AuthorizationRequest,
) (*domain.AuthorizationResponse, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.policy.InitialBackoff

	attempt := 0
	operation := func() (*domain.AuthorizationResponse, error) {
		attempt++
		resp, err := c.doAttempt(ctx, req)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("gateway attempt failed",
					slog.Int("attempt", attempt),
					slog.Any("error", err),
				)
			}
			return nil, err
		}
		return resp, nil
	}

	resp, err := backoff.RetryWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.policy.MaxAttempts-1)), ctx),
	)
	if err != nil {
		if apperrors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, apperrors.Wrap(domain.ErrGatewayUnavailable, err.Error())
	}

	return resp, nil
}

// doAttempt performs one bounded HTTP attempt against the provider.
func (c *Client) doAttempt(
	ctx context.Context,
	req domain.AuthorizationRequest,
) (*domain.AuthorizationResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
	defer cancel()

	// The provider works in minor units
	amountInCents := req.Amount.Mul(decimalHundred).IntPart()

	body := chargeRequest{
		BuyerID:            req.BuyerID,
		Amount:             amountInCents,
		Currency:           req.Currency,
		CardNumber:         req.Card.Number,
		CardHolderName:     req.Card.HolderName,
		CardExpiration:     req.Card.Expiration,
		CardSecurityNumber: req.Card.SecurityNumber,
		Description:        req.Description,
		Metadata:           req.Metadata,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, backoff.Permanent(apperrors.Wrap(err, "failed to marshal charge request"))
	}

	httpReq, err := http.NewRequestWithContext(
		attemptCtx,
		http.MethodPost,
		c.baseURL+"/charges",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, backoff.Permanent(apperrors.Wrap(err, "failed to build charge request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network error or attempt timeout: transient, retried
		return nil, apperrors.Wrap(err, "charge request failed")
	}
	defer httpResp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read charge response")
	}

	// 5xx is transient and retried; everything else is a final verdict
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway returned status %d", httpResp.StatusCode)
	}

	var verdict chargeResponse
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return nil, backoff.Permanent(apperrors.Wrap(err, "failed to decode charge response"))
	}

	return &domain.AuthorizationResponse{
		Approved:      verdict.Success,
		TransactionID: verdict.TransactionID,
		ErrorMessage:  verdict.ErrorMessage,
	}, nil
}
