package booking

import "errors"

var (
	// ErrInvalidInput covers malformed dates, unsupported room counts and
	// non-positive guest counts. Rejected before any store access.
	ErrInvalidInput = errors.New("booking: invalid input")
	// ErrDatesUnavailable means the requested range conflicts with a
	// booking that still holds dates. User-retryable with different dates.
	ErrDatesUnavailable = errors.New("booking: dates unavailable")
	// ErrInvalidTransition means the requested status change is not legal.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	// ErrNotFound targets a nonexistent booking.
	ErrNotFound = errors.New("booking: not found")
	// ErrStoreUnavailable wraps persistence failures; safe for the caller
	// to retry the whole operation.
	ErrStoreUnavailable = errors.New("booking: store unavailable")
)

// InputError carries the offending field so the caller can surface it.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return "booking: invalid input: " + e.Field + ": " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
