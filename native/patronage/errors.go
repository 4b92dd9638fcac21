package patronage

import "errors"

var (
	ErrNilState             = errors.New("patronage engine: state not configured")
	ErrParamsNotSet         = errors.New("patronage engine: ledger params not initialised")
	ErrBusinessExists       = errors.New("patronage: business already registered")
	ErrBusinessNotFound     = errors.New("patronage: business not found")
	ErrInvalidBusiness      = errors.New("patronage: invalid business profile")
	ErrSubscriptionExists   = errors.New("patronage: subscription already exists")
	ErrSubscriptionNotFound = errors.New("patronage: subscription not found")
	ErrSubscriptionInactive = errors.New("patronage: subscription inactive")
	ErrSubscriptionActive   = errors.New("patronage: subscription already active")
	ErrInvalidAmount        = errors.New("patronage: amount must be positive")
	ErrAmountBelowMinimum   = errors.New("patronage: amount below minimum")
	ErrInvalidFrequency     = errors.New("patronage: frequency must be positive")
	ErrFeeRateTooHigh       = errors.New("patronage: fee rate above cap")
	ErrPaymentNotDue        = errors.New("patronage: payment not yet due")
	ErrInsufficientFunds    = errors.New("patronage: insufficient balance")
	ErrUnauthorized         = errors.New("patronage: unauthorized")
)
