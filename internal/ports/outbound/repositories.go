// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/payment"
	"github.com/google/uuid"
)

var (
	// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")
	// ErrInvalidSignature is returned by PaymentGateway.ParseWebhook for unverifiable payloads
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	Update(ctx context.Context, p *payment.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	FindByProviderRef(ctx context.Context, ref string) (*payment.Payment, error)
}

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation sent to a language model
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatCompletion is a language model reply
type ChatCompletion struct {
	Content      string     `json:"content"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionClient sends a conversation to a language model provider
type ChatCompletionClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (*ChatCompletion, error)
	Model() string
}

// PaymentIntentParams describes a one-time charge at the provider
type PaymentIntentParams struct {
	PaymentID   uuid.UUID
	AmountCents int64
	Currency    string
	Email       string
	Description string
}

// PaymentIntentResult is the provider's view of a created intent
type PaymentIntentResult struct {
	ProviderRef  string
	ClientSecret string
	Status       payment.Status
}

// CheckoutParams describes a subscription checkout at the provider
type CheckoutParams struct {
	PaymentID  uuid.UUID
	PriceID    string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutResult is the provider's view of a created checkout session
type CheckoutResult struct {
	ProviderRef string
	URL         string
}

// PaymentEvent is a verified provider notification about a payment
type PaymentEvent struct {
	ID          string
	Type        string
	ProviderRef string
	Status      payment.Status
	// Handled is false for event types that carry no status change
	Handled bool
}

// PaymentGateway defines the payment provider operations
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntentResult, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}
