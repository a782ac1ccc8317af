package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEventNotActive     = errors.New("event is not active")
	ErrInvalidQuantity    = errors.New("invalid seat quantity")
	ErrInsufficientSeats  = errors.New("insufficient seats")
	ErrPerUserCapExceeded = errors.New("per-user seat cap exceeded")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrAlreadyInState     = errors.New("booking is already in requested state")
	ErrInvalidStatus      = errors.New("invalid booking status")
	ErrDataIntegrity      = errors.New("data integrity fault")
	ErrReferenceExhausted = errors.New("could not allocate a unique booking reference")

	// ErrUnauthorized is reported when the requester does not own the booking.
	// It matches ErrNotFound so callers that only check for absence do not leak existence.
	ErrUnauthorized = fmt.Errorf("%w: requester does not own booking", ErrNotFound)

	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("too many attempts")
	ErrInvalidInput       = errors.New("invalid input")
)

// InsufficientSeatsError carries the seats still available when a reservation fails.
type InsufficientSeatsError struct {
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("only %d seats available, %d requested", e.Available, e.Requested)
}

func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}

// CapExceededError carries how many more seats the requester may still book.
type CapExceededError struct {
	Existing  int
	Remaining int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("already holding %d seats, at most %d more allowed", e.Existing, e.Remaining)
}

func (e *CapExceededError) Is(target error) bool {
	return target == ErrPerUserCapExceeded
}

// IntegrityError describes an invariant violation detected in the store.
type IntegrityError struct {
	EventID int64
	Detail  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity fault on event %d: %s", e.EventID, e.Detail)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// ValidationError lists every field problem found in a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d problem(s)", len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
