package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means an upstream could not be reached or answered badly
	// after every retry. It is an expected outcome, callers degrade gracefully.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrNotFound means the upstream answered but had no matching record,
	// or a store has no value for the key.
	ErrNotFound = errors.New("not found")

	// ErrVoteLimit is returned when a user exceeded the daily vote limit
	ErrVoteLimit = &ValidationError{Message: "you have used all of your votes for today"}
)

// ValidationError is bad user input; its message is shown to the user as-is
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError formats a ValidationError
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
