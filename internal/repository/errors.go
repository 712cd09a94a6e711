// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// string matching.  CapacityError is the one typed error because callers
// must report the actual remaining seat count back to the client.
package repository

import (
	"errors"
	"fmt"
)

// ErrExhibitionNotFound is returned when no exhibition exists for the
// requested ID or slug.
var ErrExhibitionNotFound = errors.New("exhibition not found")

// ErrBookingNotFound is returned when no booking exists for the
// requested ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateBooking is returned when the user already holds a booking
// for the exhibition.  One booking per (user, exhibition) pair is a
// system invariant, backed by a unique key.
var ErrDuplicateBooking = errors.New("already registered for this exhibition")

// ErrEmailExists is returned when registering a user with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when the serialized register transaction kept
// hitting lock conflicts and exhausted its retries.  Handlers should
// translate this into a retryable 503 response; no partial state is left
// behind.
var ErrConflict = errors.New("conflict, try again")

// CapacityError reports that a registration asked for more seats than the
// exhibition has left.  Remaining is the count observed inside the same
// transaction that would have committed the booking, so it is exact, not
// advisory.
type CapacityError struct {
	Remaining uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats, remaining: %d", e.Remaining)
}
