package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCredential = errors.New("unable to log in with provided credentials")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserInactive      = errors.New("user inactive or deleted")
	ErrUserNotFound      = errors.New("user not found")
	ErrContestNotFound   = errors.New("contest not found")
	ErrPermissionDenied  = errors.New("permission denied")
)

// NonFieldErrors is the key for errors that do not belong to a single field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field messages keyed by wire field name.
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return fmt.Sprintf("%v, %s", ErrInvalidInput, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// PermissionError is returned when an authenticated user may not perform an operation.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}
