package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation needs a record that does not exist.
// Plain lookups signal a miss with a nil record instead.
var ErrNotFound = errors.New("record not found")

// FieldError describes one failed field rule
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationError is returned when a record violates a required-field rule
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "Validation error: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message, Value: value}}}
}

// PersistenceError wraps a storage engine failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is, or wraps, a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
