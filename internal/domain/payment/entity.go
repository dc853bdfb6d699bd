// Package payment defines the payment and subscription entities
package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinimumAmountCents is the smallest chargeable amount
const MinimumAmountCents = 50

// Kind distinguishes one-time payments from subscriptions
type Kind string

const (
	KindOneTime      Kind = "one_time"
	KindSubscription Kind = "subscription"
)

// Status represents the lifecycle state of a payment
type Status string

const (
	StatusPending        Status = "pending"
	StatusRequiresAction Status = "requires_action"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusCanceled       Status = "canceled"
)

// IsTerminal reports whether no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusCanceled
}

// Payment is a one-time charge or a subscription checkout tracked
// against the payment provider
type Payment struct {
	ID          uuid.UUID
	Kind        Kind
	Status      Status
	AmountCents int64
	Currency    string
	Email       string
	Description string
	PriceID     string
	ProviderRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOneTimePayment creates a pending one-time payment
func NewOneTimePayment(amountCents int64, currency, email, description string) (*Payment, error) {
	if amountCents < MinimumAmountCents {
		return nil, ErrInvalidAmount
	}

	currency = strings.ToLower(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	now := time.Now().UTC()
	return &Payment{
		ID:          uuid.New(),
		Kind:        KindOneTime,
		Status:      StatusPending,
		AmountCents: amountCents,
		Currency:    currency,
		Email:       email,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewSubscription creates a pending subscription checkout for a price
func NewSubscription(priceID, email string) (*Payment, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, ErrMissingPriceID
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        uuid.New(),
		Kind:      KindSubscription,
		Status:    StatusPending,
		Email:     email,
		PriceID:   priceID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AttachProvider records the provider-side reference after creation
func (p *Payment) AttachProvider(ref string, status Status) {
	p.ProviderRef = ref
	if status != "" {
		p.Status = status
	}
	p.UpdatedAt = time.Now().UTC()
}

// Transition moves the payment to status. Succeeded and canceled are
// terminal; a failed payment may be retried by the customer and can
// still succeed. Transitioning to the current status is a no-op.
func (p *Payment) Transition(status Status) error {
	if p.Status == status {
		return nil
	}
	if p.Status.IsTerminal() {
		return ErrInvalidStatusTransition
	}

	switch status {
	case StatusPending, StatusRequiresAction, StatusSucceeded, StatusFailed, StatusCanceled:
	default:
		return ErrInvalidStatusTransition
	}

	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}
