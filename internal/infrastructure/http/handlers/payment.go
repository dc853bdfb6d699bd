package handlers

import (
	"net/http"

	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SignatureHeader carries the provider's webhook signature
const SignatureHeader = "Stripe-Signature"

// PaymentHandlers serves payment intents, subscription checkout and the
// provider webhook
type PaymentHandlers struct {
	base
	service inbound.PaymentService
}

// NewPaymentHandlers creates payment handlers
func NewPaymentHandlers(service inbound.PaymentService, maxBodyBytes int64, logger *zap.Logger) *PaymentHandlers {
	return &PaymentHandlers{
		base:    newBase(logger, maxBodyBytes),
		service: service,
	}
}

// CreateIntent handles POST /api/v1/payments/intents
func (h *PaymentHandlers) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req inbound.PaymentIntentRequest
	if appErr := h.decodeJSON(w, r, &req); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	resp, err := h.service.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusCreated, resp, "Payment intent created")
}

// CreateCheckout handles POST /api/v1/payments/checkout
func (h *PaymentHandlers) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req inbound.CheckoutRequest
	if r.ContentLength != 0 {
		if appErr := h.decodeJSON(w, r, &req); appErr != nil {
			h.writeError(w, r, appErr)
			return
		}
	}

	resp, err := h.service.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusCreated, resp, "Checkout session created")
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *PaymentHandlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errors.NewBadRequestError("Invalid payment ID"))
		return
	}

	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusOK, payment, "")
}

// Webhook handles POST /api/v1/payments/webhook. The body must be passed
// through unmodified for signature verification.
func (h *PaymentHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, appErr := h.readBody(w, r)
	if appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Event received"})
}
