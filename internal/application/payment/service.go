// Package payment provides the payment application service
package payment

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/alchemorsel/kitchen/internal/domain/payment"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Webhook outcomes reported to metrics
const (
	OutcomeUpdated = "updated"
	OutcomeIgnored = "ignored"
	OutcomeUnknown = "unknown_payment"
	OutcomeStale   = "stale"
)

// Metrics is the subset of the metrics collector the service reports to
type Metrics interface {
	RecordPayment(kind, status string)
	RecordWebhookEvent(eventType, outcome string)
}

// Config holds defaults applied to incoming requests
type Config struct {
	Currency            string
	SubscriptionPriceID string
	SuccessURL          string
	CancelURL           string
}

// Service implements inbound.PaymentService
type Service struct {
	gateway  outbound.PaymentGateway
	repo     outbound.PaymentRepository
	metrics  Metrics
	config   Config
	validate *validator.Validate
	logger   *zap.Logger
	tracer   trace.Tracer
}

var _ inbound.PaymentService = (*Service)(nil)

// NewService creates a payment service. gateway is nil when no provider
// key is configured; provider operations then fail with SERVICE_UNAVAILABLE.
func NewService(
	gateway outbound.PaymentGateway,
	repo outbound.PaymentRepository,
	metrics Metrics,
	config Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:  gateway,
		repo:     repo,
		metrics:  metrics,
		config:   config,
		validate: validator.New(),
		logger:   logger.Named("payment"),
		tracer:   otel.Tracer("alchemorsel/payment"),
	}
}

// CreatePaymentIntent starts a one-time payment
func (s *Service) CreatePaymentIntent(ctx context.Context, req inbound.PaymentIntentRequest) (*inbound.PaymentIntentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreatePaymentIntent")
	defer span.End()

	if s.gateway == nil {
		return nil, errors.NewServiceUnavailableError("payments")
	}
	if err := errors.FromValidator(s.validate.Struct(req)); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.Currency
	}

	p, err := payment.NewOneTimePayment(req.AmountCents, currency, req.Email, req.Description)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	result, err := s.gateway.CreatePaymentIntent(ctx, outbound.PaymentIntentParams{
		PaymentID:   p.ID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Email:       p.Email,
		Description: p.Description,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to create payment intent", zap.String("payment_id", p.ID.String()), zap.Error(err))
		return nil, errors.NewExternalServiceError("payment provider", err)
	}
	p.AttachProvider(result.ProviderRef, result.Status)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.NewDatabaseError("create payment", err)
	}

	span.SetAttributes(
		attribute.String("payment.id", p.ID.String()),
		attribute.Int64("payment.amount_cents", p.AmountCents),
	)
	s.metrics.RecordPayment(string(p.Kind), string(p.Status))
	s.logger.Info("Payment intent created",
		zap.String("payment_id", p.ID.String()),
		zap.String("provider_ref", p.ProviderRef),
		zap.Int64("amount_cents", p.AmountCents),
		zap.String("currency", p.Currency),
	)

	return &inbound.PaymentIntentResponse{
		PaymentID:    p.ID,
		ClientSecret: result.ClientSecret,
		Status:       string(p.Status),
	}, nil
}

// CreateCheckoutSession starts a subscription checkout
func (s *Service) CreateCheckoutSession(ctx context.Context, req inbound.CheckoutRequest) (*inbound.CheckoutResponse, error) {
	ctx, span := s.tracer.Start(ctx, "payment.CreateCheckoutSession")
	defer span.End()

	if s.gateway == nil {
		return nil, errors.NewServiceUnavailableError("payments")
	}
	if err := errors.FromValidator(s.validate.Struct(req)); err != nil {
		return nil, err
	}

	priceID := firstNonEmpty(req.PriceID, s.config.SubscriptionPriceID)
	p, err := payment.NewSubscription(priceID, req.Email)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	result, err := s.gateway.CreateCheckoutSession(ctx, outbound.CheckoutParams{
		PaymentID:  p.ID,
		PriceID:    p.PriceID,
		Email:      p.Email,
		SuccessURL: firstNonEmpty(req.SuccessURL, s.config.SuccessURL),
		CancelURL:  firstNonEmpty(req.CancelURL, s.config.CancelURL),
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to create checkout session", zap.String("payment_id", p.ID.String()), zap.Error(err))
		return nil, errors.NewExternalServiceError("payment provider", err)
	}
	p.AttachProvider(result.ProviderRef, "")

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.NewDatabaseError("create payment", err)
	}

	span.SetAttributes(attribute.String("payment.id", p.ID.String()))
	s.metrics.RecordPayment(string(p.Kind), string(p.Status))
	s.logger.Info("Checkout session created",
		zap.String("payment_id", p.ID.String()),
		zap.String("session_id", result.ProviderRef),
		zap.String("price_id", p.PriceID),
	)

	return &inbound.CheckoutResponse{
		PaymentID: p.ID,
		SessionID: result.ProviderRef,
		URL:       result.URL,
	}, nil
}

// GetPayment returns a stored payment
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*inbound.PaymentDTO, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, payment.ErrPaymentNotFound) {
			return nil, errors.NewPaymentNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find payment", err)
	}
	return toDTO(p), nil
}

// HandleWebhook applies a verified provider event to the stored payment.
// Events for unknown payments or without a status change are
// acknowledged and ignored so the provider stops retrying them.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := s.tracer.Start(ctx, "payment.HandleWebhook")
	defer span.End()

	if s.gateway == nil {
		return errors.NewServiceUnavailableError("payments")
	}

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if stderrors.Is(err, outbound.ErrInvalidSignature) {
			s.logger.Warn("Rejected webhook with invalid signature", zap.Error(err))
			return errors.NewAppError(errors.CodeInvalidSignature, "Invalid webhook signature", "").WithCause(err)
		}
		return errors.NewBadRequestError("malformed webhook payload").WithCause(err)
	}
	span.SetAttributes(attribute.String("payment.event_type", event.Type))

	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if !event.Handled {
		log.Debug("Ignoring webhook event")
		s.metrics.RecordWebhookEvent(event.Type, OutcomeIgnored)
		return nil
	}

	p, err := s.repo.FindByProviderRef(ctx, event.ProviderRef)
	if err != nil {
		if stderrors.Is(err, payment.ErrPaymentNotFound) {
			log.Warn("Webhook references unknown payment", zap.String("provider_ref", event.ProviderRef))
			s.metrics.RecordWebhookEvent(event.Type, OutcomeUnknown)
			return nil
		}
		return errors.NewDatabaseError("find payment", err)
	}

	previous := p.Status
	if err := p.Transition(event.Status); err != nil {
		log.Info("Ignoring status change for finalized payment",
			zap.String("payment_id", p.ID.String()),
			zap.String("status", string(previous)),
			zap.String("requested", string(event.Status)),
		)
		s.metrics.RecordWebhookEvent(event.Type, OutcomeStale)
		return nil
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return errors.NewDatabaseError("update payment", err)
	}

	s.metrics.RecordWebhookEvent(event.Type, OutcomeUpdated)
	log.Info("Payment status updated",
		zap.String("payment_id", p.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(p.Status)),
	)
	return nil
}

func toDTO(p *payment.Payment) *inbound.PaymentDTO {
	return &inbound.PaymentDTO{
		ID:          p.ID,
		Kind:        string(p.Kind),
		Status:      string(p.Status),
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Email:       p.Email,
		Description: p.Description,
		PriceID:     p.PriceID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
