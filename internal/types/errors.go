package types

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a trip or its plan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before any mutation.
	ErrValidation = errors.New("validation error")

	// ErrConcurrentModification is returned when a plan write loses the
	// optimistic version race. Callers must refetch and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrUpstreamUnavailable is recorded when a rate or weather fetch fails.
	// It is recovered locally and never reaches API callers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// FieldError describes one offending field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field error found in a payload.
// errors.Is(err, ErrValidation) holds for it.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
