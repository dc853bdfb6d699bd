package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/payment"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository implements the payment repository interface using GORM
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) outbound.PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create stores a new payment
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := PaymentToModel(p)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	p.ID = model.ID
	return nil
}

// Update persists the mutable fields of an existing payment
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":       string(p.Status),
			"provider_ref": p.ProviderRef,
			"updated_at":   p.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return payment.ErrPaymentNotFound
	}

	return nil
}

// FindByID finds a payment by ID
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByProviderRef finds a payment by its payment provider reference
func (r *PaymentRepository) FindByProviderRef(ctx context.Context, ref string) (*payment.Payment, error) {
	if ref == "" {
		return nil, payment.ErrPaymentNotFound
	}
	return r.findOne(ctx, "provider_ref = ?", ref)
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, arg interface{}) (*payment.Payment, error) {
	var model PaymentModel

	if err := r.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return ModelToPayment(&model), nil
}
