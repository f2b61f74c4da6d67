package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrInvalidState      = errors.New("invalid state")      // 409
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrVoucherIneligible = errors.New("voucher ineligible") // 409
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidSignature  = errors.New("invalid signature")
)

var (
	ErrCartNotFound          = fmt.Errorf("%w: cart", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("%w: order", ErrNotFound)
	ErrAddressNotFound       = fmt.Errorf("%w: address", ErrNotFound)
	ErrVariantNotFound       = fmt.Errorf("%w: variant", ErrNotFound)
	ErrVoucherNotFound       = fmt.Errorf("%w: voucher", ErrNotFound)
	ErrPaymentMethodNotFound = fmt.Errorf("%w: payment method", ErrNotFound)

	ErrCartEmpty          = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrCartCheckedOut     = fmt.Errorf("%w: cart already checked out", ErrInvalidState)
	ErrInvalidTransition  = fmt.Errorf("%w: transition not allowed", ErrInvalidState)
	ErrVariantUnavailable = fmt.Errorf("%w: variant unavailable", ErrInvalidState)

	ErrVoucherInactive     = fmt.Errorf("%w: inactive", ErrVoucherIneligible)
	ErrVoucherNotStarted   = fmt.Errorf("%w: not started", ErrVoucherIneligible)
	ErrVoucherExpired      = fmt.Errorf("%w: expired", ErrVoucherIneligible)
	ErrVoucherBelowMinimum = fmt.Errorf("%w: below minimum order value", ErrVoucherIneligible)
	ErrVoucherAboveMaximum = fmt.Errorf("%w: above maximum order value", ErrVoucherIneligible)
	ErrVoucherLimitReached = fmt.Errorf("%w: usage limit reached", ErrVoucherIneligible)
	ErrVoucherAlreadyUsed  = fmt.Errorf("%w: already used by user", ErrVoucherIneligible)

	ErrAmountMismatch = errors.New("amount mismatch")
	ErrUnknownGateway = errors.New("unknown gateway")
)

// StockError names the variant a reservation failed on.
type StockError struct {
	VariantID uuid.UUID
	Requested int64
	Available int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d", e.VariantID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

var ErrCartItemNotFound = fmt.Errorf("%w: cart item", ErrNotFound)
