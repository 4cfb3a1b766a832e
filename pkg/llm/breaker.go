package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerClient wraps a Client with a circuit breaker so that a backend that
// is hard down stops receiving traffic quickly instead of burning every
// window's retry budget against it. An open circuit is reported as a fatal
// classified error, which aborts the pass per the scheduler's failure policy.
type BreakerClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings configures the circuit breaker wrapper.
type BreakerSettings struct {
	// ConsecutiveFailures before the circuit opens. Default 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before probing again.
	// Default 30s.
	OpenTimeout time.Duration
}

// NewBreakerClient wraps client with a circuit breaker.
func NewBreakerClient(client Client, settings BreakerSettings) *BreakerClient {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.OpenTimeout == 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm:" + client.Model(),
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation and fatal request errors say nothing
			// about backend health; only transient and rate-limit
			// failures count against the circuit.
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return !IsRetryable(err)
		},
	})

	return &BreakerClient{client: client, breaker: cb}
}

// Chat forwards the request through the circuit breaker.
func (c *BreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, NewError(KindFatal, err)
		}
		return nil, err
	}
	return result.(*Response), nil
}

// Model returns the wrapped client's model identifier.
func (c *BreakerClient) Model() string {
	return c.client.Model()
}

// Close closes the wrapped client.
func (c *BreakerClient) Close() error {
	return c.client.Close()
}
