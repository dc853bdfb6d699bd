package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOneTimePayment(t *testing.T) {
	t.Run("Valid_ShouldCreatePending", func(t *testing.T) {
		p, err := NewOneTimePayment(1500, " USD ", "cook@example.com", "Premium recipes")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, KindOneTime, p.Kind)
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, "usd", p.Currency)
		assert.NotZero(t, p.CreatedAt)
	})

	t.Run("AmountTooSmall", func(t *testing.T) {
		_, err := NewOneTimePayment(49, "usd", "", "")
		assert.Equal(t, ErrInvalidAmount, err)
	})

	t.Run("BadCurrency", func(t *testing.T) {
		_, err := NewOneTimePayment(100, "dollars", "", "")
		assert.Equal(t, ErrInvalidCurrency, err)
	})
}

func TestNewSubscription(t *testing.T) {
	p, err := NewSubscription("price_123", "")
	require.NoError(t, err)
	assert.Equal(t, KindSubscription, p.Kind)
	assert.Equal(t, "price_123", p.PriceID)

	_, err = NewSubscription("  ", "")
	assert.Equal(t, ErrMissingPriceID, err)
}

func TestPaymentTransition(t *testing.T) {
	t.Run("PendingToSucceeded", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		require.NoError(t, p.Transition(StatusSucceeded))
		assert.Equal(t, StatusSucceeded, p.Status)
	})

	t.Run("FailedCanStillSucceed", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		require.NoError(t, p.Transition(StatusFailed))
		require.NoError(t, p.Transition(StatusSucceeded))
	})

	t.Run("TerminalIsFinal", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		require.NoError(t, p.Transition(StatusCanceled))
		assert.Equal(t, ErrInvalidStatusTransition, p.Transition(StatusSucceeded))
	})

	t.Run("SameStatusIsNoop", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		require.NoError(t, p.Transition(StatusSucceeded))
		assert.NoError(t, p.Transition(StatusSucceeded))
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		assert.Equal(t, ErrInvalidStatusTransition, p.Transition(Status("refunded")))
	})

	t.Run("AttachProvider", func(t *testing.T) {
		p, _ := NewOneTimePayment(100, "usd", "", "")
		p.AttachProvider("pi_123", StatusRequiresAction)
		assert.Equal(t, "pi_123", p.ProviderRef)
		assert.Equal(t, StatusRequiresAction, p.Status)
	})
}
