package models

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by the services. Handlers map these to HTTP
// statuses; anything else is treated as an internal failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAllowed        = errors.New("not allowed")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrDuplicateFeedback = errors.New("feedback already submitted for this meeting")
)

// ValidationError reports malformed input (empty title, out-of-range
// rating, bad date).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientCreditsError is returned when a debit would take a wallet
// below zero. It carries the required amount and the current balance so the
// caller can render a helpful message.
type InsufficientCreditsError struct {
	Required int
	Balance  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, balance %d", e.Required, e.Balance)
}
