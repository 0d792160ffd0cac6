// Package apperrors defines the domain error taxonomy. Handlers map
// these to HTTP status codes; everything else is an internal error.
package apperrors

import "fmt"

// ValidationError means the input shape or range is wrong and the user
// can correct it. Maps to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError means the addressed resource does not exist. Maps to 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ConflictError means a state-machine violation: settling an already
// settled request, closing a non-zero account, accepting twice. Maps
// to 409.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InsufficientFundsError means the debit would push the account below
// its credit limit. Maps to 422.
type InsufficientFundsError struct {
	AccountID int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %d", e.AccountID)
}

// ExchangeUnavailableError means no direct rate exists for the pair.
// Conversion is never chained through an intermediate currency. Maps
// to 503.
type ExchangeUnavailableError struct {
	From string
	To   string
}

func (e *ExchangeUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate for %s/%s", e.From, e.To)
}
