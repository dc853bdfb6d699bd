// Package stripe provides the Stripe payment gateway adapter
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/payment"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Webhook event types that change a payment's status
const (
	EventPaymentIntentSucceeded      = "payment_intent.succeeded"
	EventPaymentIntentFailed         = "payment_intent.payment_failed"
	EventPaymentIntentCanceled       = "payment_intent.canceled"
	EventPaymentIntentRequiresAction = "payment_intent.requires_action"
	EventCheckoutSessionCompleted    = "checkout.session.completed"
	EventCheckoutSessionExpired      = "checkout.session.expired"
)

const paymentIDMetadataKey = "payment_id"

// Config holds Stripe credentials
type Config struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the Stripe API endpoint, for stripe-mock and tests
	APIURL string
}

// Gateway implements outbound.PaymentGateway
type Gateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var _ outbound.PaymentGateway = (*Gateway)(nil)

// NewGateway creates a Stripe gateway
func NewGateway(config Config, logger *zap.Logger) *Gateway {
	var backends *stripe.Backends
	if config.APIURL != "" {
		backendConfig := &stripe.BackendConfig{
			URL:           stripe.String(config.APIURL),
			LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelError},
		}
		api := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
		backends = &stripe.Backends{
			API:     api,
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
		}
	}

	return &Gateway{
		api:           client.New(config.SecretKey, backends),
		webhookSecret: config.WebhookSecret,
		logger:        logger.Named("stripe"),
	}
}

// CreatePaymentIntent creates a payment intent with automatic payment methods
func (g *Gateway) CreatePaymentIntent(ctx context.Context, params outbound.PaymentIntentParams) (*outbound.PaymentIntentResult, error) {
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	p.Context = ctx
	p.SetIdempotencyKey("pi-" + params.PaymentID.String())
	p.AddMetadata(paymentIDMetadataKey, params.PaymentID.String())
	if params.Email != "" {
		p.ReceiptEmail = stripe.String(params.Email)
	}
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}

	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.logger.Debug("Payment intent created", zap.String("intent_id", pi.ID), zap.String("status", string(pi.Status)))

	return &outbound.PaymentIntentResult{
		ProviderRef:  pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       intentStatus(pi.Status),
	}, nil
}

// CreateCheckoutSession creates a hosted subscription checkout
func (g *Gateway) CreateCheckoutSession(ctx context.Context, params outbound.CheckoutParams) (*outbound.CheckoutResult, error) {
	p := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.PaymentID.String()),
	}
	p.Context = ctx
	p.SetIdempotencyKey("cs-" + params.PaymentID.String())
	p.AddMetadata(paymentIDMetadataKey, params.PaymentID.String())
	if params.Email != "" {
		p.CustomerEmail = stripe.String(params.Email)
	}

	s, err := g.api.CheckoutSessions.New(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &outbound.CheckoutResult{ProviderRef: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps the event
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*outbound.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", outbound.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("failed to parse webhook: %w", err)
	}

	result := &outbound.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return result, nil
	}

	switch string(event.Type) {
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed, EventPaymentIntentCanceled, EventPaymentIntentRequiresAction:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		result.ProviderRef = pi.ID
		result.Status = eventStatus(string(event.Type))
		result.Handled = true

	case EventCheckoutSessionCompleted, EventCheckoutSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		result.ProviderRef = s.ID
		result.Status = eventStatus(string(event.Type))
		result.Handled = true
	}

	return result, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func eventStatus(eventType string) payment.Status {
	switch eventType {
	case EventPaymentIntentSucceeded, EventCheckoutSessionCompleted:
		return payment.StatusSucceeded
	case EventPaymentIntentFailed:
		return payment.StatusFailed
	case EventPaymentIntentCanceled, EventCheckoutSessionExpired:
		return payment.StatusCanceled
	case EventPaymentIntentRequiresAction:
		return payment.StatusRequiresAction
	default:
		return payment.StatusPending
	}
}

func intentStatus(s stripe.PaymentIntentStatus) payment.Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return payment.StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return payment.StatusCanceled
	case stripe.PaymentIntentStatusRequiresAction:
		return payment.StatusRequiresAction
	default:
		return payment.StatusPending
	}
}
