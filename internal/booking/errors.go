package booking

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is.  The typed errors below unwrap to them.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("reservation conflict")
	ErrNotFound   = errors.New("not found")

	// ErrInvalidTransition is returned when a lifecycle action is not
	// allowed from the reservation's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports input rejected before any query ran.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports that the requested stay overlaps an active
// reservation of the same cabin.
type ConflictError struct {
	ReservationID uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates conflict with reservation #%d", e.ReservationID)
}
func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports an unknown cabin, customer or reservation.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Entity, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransitionError wraps ErrInvalidTransition with the statuses involved.
type TransitionError struct {
	Action string
	From   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s reservation", e.Action, e.From)
}
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
