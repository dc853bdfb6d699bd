package gorm

import (
	"github.com/alchemorsel/kitchen/internal/domain/payment"
)

// PaymentToModel converts a domain payment to a GORM model
func PaymentToModel(p *payment.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		Kind:        string(p.Kind),
		Status:      string(p.Status),
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Email:       p.Email,
		Description: p.Description,
		PriceID:     p.PriceID,
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ModelToPayment converts a GORM model to a domain payment
func ModelToPayment(m *PaymentModel) *payment.Payment {
	return &payment.Payment{
		ID:          m.ID,
		Kind:        payment.Kind(m.Kind),
		Status:      payment.Status(m.Status),
		AmountCents: m.AmountCents,
		Currency:    m.Currency,
		Email:       m.Email,
		Description: m.Description,
		PriceID:     m.PriceID,
		ProviderRef: m.ProviderRef,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
