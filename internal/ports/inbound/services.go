// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
)

// AssistantService answers cooking questions with the rule-based assistant
type AssistantService interface {
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)
	Glossary(ctx context.Context) *GlossaryDTO
}

// ChatService proxies conversations to a language model
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// PaymentService handles one-time payments and subscriptions
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntentResponse, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// AskRequest carries one user message for the assistant
type AskRequest struct {
	Message string `json:"message"`
}

// AskResponse carries the assistant's chosen response
type AskResponse struct {
	Response   string `json:"response"`
	Category   string `json:"category"`
	MatchedKey string `json:"matched_key,omitempty"`
}

// GlossaryEntryDTO is one glossary term
type GlossaryEntryDTO struct {
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
}

// GlossaryDTO lists the assistant's techniques and substitutions in matching order
type GlossaryDTO struct {
	Techniques    []GlossaryEntryDTO `json:"techniques"`
	Substitutions []GlossaryEntryDTO `json:"substitutions"`
}

// ChatRequest is a conversation to forward to the language model
type ChatRequest struct {
	Messages []outbound.ChatMessage `json:"messages"`
}

// Reply sources
const (
	SourceProvider  = "provider"
	SourceCache     = "cache"
	SourceAssistant = "assistant"
)

// ChatResponse is the language model reply, or the assistant's when the
// model is unavailable
type ChatResponse struct {
	Reply  string               `json:"reply"`
	Source string               `json:"source"`
	Model  string               `json:"model,omitempty"`
	Usage  *outbound.TokenUsage `json:"usage,omitempty"`
}

// PaymentIntentRequest creates a one-time payment
type PaymentIntentRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=50"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
	Email       string `json:"email" validate:"omitempty,email"`
	Description string `json:"description" validate:"max=500"`
}

// PaymentIntentResponse is returned to the client to confirm the payment
type PaymentIntentResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ClientSecret string    `json:"client_secret"`
	Status       string    `json:"status"`
}

// CheckoutRequest creates a subscription checkout session
type CheckoutRequest struct {
	PriceID    string `json:"price_id"`
	Email      string `json:"email" validate:"omitempty,email"`
	SuccessURL string `json:"success_url" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url" validate:"omitempty,url"`
}

// CheckoutResponse points the client at the hosted checkout page
type CheckoutResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

// PaymentDTO is the public view of a payment
type PaymentDTO struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Email       string    `json:"email,omitempty"`
	Description string    `json:"description,omitempty"`
	PriceID     string    `json:"price_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
