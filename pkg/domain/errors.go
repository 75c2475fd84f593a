package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when a unique key is already taken
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when a write lost an optimistic version check
	// or contradicts the current state of the resource
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition is returned for status changes the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized is returned when a caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a caller is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrProvider is returned when a payment provider call fails
	ErrProvider = errors.New("payment provider error")
	// ErrProviderUnavailable is returned when a payment method has no configured provider
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrStore is returned when the persistence layer fails
	ErrStore = errors.New("store error")
	// ErrUnavailable is returned when a feature is disabled by configuration
	ErrUnavailable = errors.New("feature unavailable")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError wraps a failed call to an external payment provider.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Op)
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// StoreError wraps a persistence failure.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }
