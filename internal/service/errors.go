package service

import "errors"

// Client-facing errors raised by the booking engine itself.  Storage-level
// errors (not-found, duplicate, capacity, conflict) live in the repository
// package; these cover the rules the engine enforces above storage.

// ErrSeatCountOutOfRange is returned when the requested seat count is
// outside model.MinSeats..model.MaxSeats.
var ErrSeatCountOutOfRange = errors.New("seat count out of range")

// ErrUnavailable is returned when the exhibition exists but is not open
// for registration: a gate is closed or today is outside its window.
var ErrUnavailable = errors.New("exhibition not available for registration")

// ErrForbidden is returned when the caller lacks the right to act on a
// booking: cancelling someone else's booking without admin, or admitting
// tickets without staff capability.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyValidated is returned when cancelling a booking whose ticket
// has been used.  Validated bookings are attendance records and are never
// deleted.
var ErrAlreadyValidated = errors.New("booking already validated")

// ErrUnknownTicket is returned when a decoded payload does not resolve to
// a stored booking, or its identity/exhibition fields do not match the
// stored row.  The mismatch case guards against tampered payloads.
var ErrUnknownTicket = errors.New("unknown ticket")

// ErrAlreadyAdmitted is returned on replay of a used ticket.  The
// rejection is idempotent: state is left untouched.
var ErrAlreadyAdmitted = errors.New("ticket already admitted")
