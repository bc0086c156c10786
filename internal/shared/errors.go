package shared

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the request failed field validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStatus indicates a disallowed lifecycle transition.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrConversionConflict indicates the estimate was already converted.
	ErrConversionConflict = errors.New("estimate already converted")
	// ErrConversionFailed indicates the conversion batch did not commit.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrPersistence indicates an atomic write failed.
	ErrPersistence = errors.New("persistence failed")
	// ErrUnauthorized indicates a missing or invalid host session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAssistUnavailable indicates the content generator could not produce a result.
	ErrAssistUnavailable = errors.New("assist unavailable")
	// ErrMessageDelivery indicates the host messaging API rejected or could not take a message.
	ErrMessageDelivery = errors.New("message delivery failed")
)

// ValidationError carries field level messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConversionConflictError reports the invoice an estimate was already converted into.
type ConversionConflictError struct {
	EstimateID string
	InvoiceID  string
}

func (e *ConversionConflictError) Error() string {
	return "estimate " + e.EstimateID + " already converted to invoice " + e.InvoiceID
}

// Unwrap allows errors.Is(err, ErrConversionConflict).
func (e *ConversionConflictError) Unwrap() error {
	return ErrConversionConflict
}
