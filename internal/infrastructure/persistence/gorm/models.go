// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentModel represents the GORM model for payments and subscription checkouts
type PaymentModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Kind        string    `gorm:"type:varchar(20);not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	AmountCents int64     `gorm:"default:0"`
	Currency    string    `gorm:"type:varchar(3)"`
	Email       string    `gorm:"type:varchar(255)"`
	Description string    `gorm:"type:text"`
	PriceID     string    `gorm:"type:varchar(255)"`
	ProviderRef string    `gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for PaymentModel
func (PaymentModel) TableName() string {
	return "payments"
}

// BeforeCreate hook for PaymentModel
func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AllModels lists the models managed by auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&PaymentModel{},
	}
}
