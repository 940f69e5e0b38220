package model

import "errors"

// ErrValidation is the root of every input validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a rejected field. Its message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
