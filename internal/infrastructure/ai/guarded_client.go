// Package ai provides provider-independent wrappers around chat
// completion clients
package ai

import (
	"context"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"go.uber.org/zap"
)

// GuardedClient stops calling the language model provider after repeated
// failures until the breaker's timeout elapses. Rejected calls fail fast
// with healthcheck.ErrCircuitOpen so the chat service can fall back.
type GuardedClient struct {
	next    outbound.ChatCompletionClient
	breaker *healthcheck.CircuitBreaker
}

var _ outbound.ChatCompletionClient = (*GuardedClient)(nil)

// NewGuardedClient wraps next with a circuit breaker named "language_model"
func NewGuardedClient(next outbound.ChatCompletionClient, config healthcheck.CircuitBreakerConfig, logger *zap.Logger) *GuardedClient {
	config.OnStateChange = func(name string, from, to healthcheck.CircuitBreakerState) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &GuardedClient{
		next:    next,
		breaker: healthcheck.NewCircuitBreaker("language_model", config),
	}
}

// Complete forwards to the wrapped client unless the circuit is open
func (g *GuardedClient) Complete(ctx context.Context, messages []outbound.ChatMessage) (*outbound.ChatCompletion, error) {
	var completion *outbound.ChatCompletion
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		completion, err = g.next.Complete(ctx, messages)
		return err
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// Model returns the wrapped client's model
func (g *GuardedClient) Model() string {
	return g.next.Model()
}

// Breaker exposes the circuit breaker for health reporting
func (g *GuardedClient) Breaker() *healthcheck.CircuitBreaker {
	return g.breaker
}
