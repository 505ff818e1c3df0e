package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("issue was modified concurrently")
	ErrDuplicate         = errors.New("already exists")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError is returned when an action is attempted from a status that
// is not one of its preconditions.
type TransitionError struct {
	Action string
	From   IssueStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an issue in status %q", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
