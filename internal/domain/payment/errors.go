package payment

import "errors"

// Domain errors for payment operations

var (
	// Entity validation errors
	ErrInvalidAmount   = errors.New("payment amount must be at least 50 minor units")
	ErrInvalidCurrency = errors.New("currency must be a three-letter ISO code")
	ErrMissingPriceID  = errors.New("subscription requires a price ID")

	// State transition errors
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrPaymentNotFound         = errors.New("payment not found")
)
