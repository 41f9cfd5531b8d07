package errors

import (
	"errors"
	"fmt"
)

var (
	// Payment errors
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrDuplicateExternalID = errors.New("externalId already exists")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Refund errors
	ErrRefundNotAllowed    = errors.New("only authorized/captured payments can be refunded")
	ErrInvalidRefundAmount = errors.New("invalid refund amount")

	// ErrStatusPrecondition signals a conditional status update whose
	// expected-status predicate no longer held when the write executed.
	ErrStatusPrecondition = errors.New("status precondition failed")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
