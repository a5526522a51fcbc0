package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAlreadyRegistered   = errors.New("already_registered")
	ErrInvalidShareCount   = errors.New("invalid_share_count")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInstrumentNotFound  = errors.New("instrument_not_found")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInsufficientFunds   = errors.New("insufficient_funds")
	ErrInsufficientShares  = errors.New("insufficient_shares")
	ErrTokenTransferFailed = errors.New("token_transfer_failed")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrWebhookNotFound     = errors.New("webhook_not_found")

	// ErrShareUnderflow indicates a debit below the current balance. Every
	// debit is preceded by a balance check at the point of mutation, so
	// seeing this error means the engine's bookkeeping is broken.
	ErrShareUnderflow = errors.New("share_ledger_underflow")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
