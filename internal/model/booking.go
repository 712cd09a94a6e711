package model

import "time"

// Ticket states stored in bookings.ticket_state.  The only legal
// transition is Issued -> Admitted; there is no way back.
const (
	TicketIssued   = "ISSUED"
	TicketAdmitted = "ADMITTED"
)

// Seat count bounds for a single booking.  One person books for a small
// group at most; larger parties register separately.
const (
	MinSeats = 1
	MaxSeats = 10
)

// Booking records one user's registration for one exhibition.  At most
// one booking exists per (user, exhibition) pair; the database enforces
// this with a unique key.  The sum of SeatCount across an exhibition's
// bookings never exceeds the exhibition's capacity.
//
// TicketState is ISSUED until the ticket is scanned at the door, then
// ADMITTED, which is terminal.  TicketPayload is set once at issue time
// and immutable afterwards.  Notified records whether the confirmation
// reached the notification dispatcher.
type Booking struct {
	ID            uint64     // bookings.id
	UserID        uint64     // bookings.user_id
	ExhibitionID  uint64     // bookings.exhibition_id
	SeatCount     uint32     // bookings.seat_count
	TicketState   string     // bookings.ticket_state
	TicketPayload string     // bookings.ticket_payload (empty until issued)
	Notified      bool       // bookings.notified
	NotifiedAt    *time.Time // bookings.notified_at (nullable)
	CreatedAt     time.Time  // bookings.created_at
}

// Admitted reports whether the booking's ticket has already been used.
func (b *Booking) Admitted() bool { return b.TicketState == TicketAdmitted }
