package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, messages []outbound.ChatMessage) (*outbound.ChatCompletion, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.ChatCompletion), args.Error(1)
}

func (m *MockClient) Model() string {
	return m.Called().String(0)
}

func TestGuardedClient_PassesThrough(t *testing.T) {
	next := new(MockClient)
	next.On("Complete", mock.Anything, mock.Anything).Return(&outbound.ChatCompletion{Content: "ok"}, nil).Once()
	next.On("Model").Return("gpt-4o-mini")

	g := NewGuardedClient(next, healthcheck.DefaultCircuitBreakerConfig(), zaptest.NewLogger(t))

	completion, err := g.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Content)
	assert.Equal(t, "gpt-4o-mini", g.Model())
}

func TestGuardedClient_OpensAndFailsFast(t *testing.T) {
	next := new(MockClient)
	next.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("502 bad gateway")).Times(2)

	g := NewGuardedClient(next, healthcheck.CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
	}, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), nil)
		require.Error(t, err)
	}

	_, err := g.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, healthcheck.ErrCircuitOpen)
	assert.Equal(t, healthcheck.StateOpen, g.Breaker().GetState())
	next.AssertNumberOfCalls(t, "Complete", 2)
}
