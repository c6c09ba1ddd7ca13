package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories, services, and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAllocationExhausted is returned when no participant number is free in an event's range.
	ErrAllocationExhausted = errors.New("no participant number available")
	// ErrDuplicateIdentifier is returned when a nickname already has a fixed number.
	ErrDuplicateIdentifier = errors.New("nickname already has a fixed number")
	// ErrDuplicateNumber is returned when a fixed number already belongs to another nickname.
	ErrDuplicateNumber = errors.New("number already fixed to another nickname")
	// ErrAlreadyRegistered is returned when the external id is already registered for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrDuplicateNickname is returned when another active registrant of the event already
	// uses the nickname.
	ErrDuplicateNickname = errors.New("nickname already registered for this event")
	// ErrNumberConflict is returned by the store when two active registrants of one event
	// would end up with the same number. Callers retry the whole transaction.
	ErrNumberConflict = errors.New("participant number taken concurrently")
)

// BindingConflictError carries the binding that blocked a fixed-number creation so the
// dashboard can tell the operator which binding to remove first.
type BindingConflictError struct {
	Err      error
	Existing *FixedNumber
}

func (e *BindingConflictError) Error() string {
	if e.Existing == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: @%s -> %d", e.Err, e.Existing.Nickname, e.Existing.Number)
}

func (e *BindingConflictError) Unwrap() error { return e.Err }

// InvalidInputError wraps ErrInvalidInput with a human-readable reason.
func InvalidInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
