// Package domain defines domain-level errors for the marketdata feature.
package domain

import (
	"errors"
	"fmt"
)

// Error categories. Match them with errors.Is; the typed errors below carry the detail.
var (
	// ErrProvider indicates the external market-data provider failed
	// (network error, unknown symbol, provider-side error). Usually retryable.
	ErrProvider = errors.New("market data provider error")

	// ErrStore indicates a read or write against the relational store failed.
	ErrStore = errors.New("market data store error")

	// ErrValidation indicates malformed input rejected before reaching the provider or store.
	ErrValidation = errors.New("invalid request")
)

// ProviderError wraps a failure returned by a provider adapter.
// Error returns the provider's message unchanged.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// NewProviderError wraps err for the named provider. Errors that are already
// provider errors are returned as is.
func NewProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}

// StoreError wraps a failure from the persistence layer.
// Conflict is set when the database rejected a write on a uniqueness constraint.
type StoreError struct {
	Op       string
	Conflict bool
	Err      error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError is a shorthand for &ValidationError{...}.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
