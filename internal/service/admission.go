// Package service implements the booking engine: admission control with a
// serialized capacity check, the ticket validation state machine, and the
// glue that issues tickets and hands confirmations to the notification
// dispatcher.  Storage is consumed through narrow interfaces so the engine
// carries no SQL and tests can drive it with in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/ticket"
)

// ExhibitionStore is the slice of the catalog the engine reads.
type ExhibitionStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Exhibition, error)
}

// BookingStore is the mutable shared resource of the system.  Register and
// Admit are atomic in every implementation: Register serializes the
// capacity check with the insert, Admit compare-and-sets the ticket state.
// All booking mutation goes through this interface; nothing else writes
// booking rows.
type BookingStore interface {
	Register(ctx context.Context, exhibitionID, userID uint64, seats uint32) (*model.Booking, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	AttachTicket(ctx context.Context, id uint64, payload string) error
	MarkNotified(ctx context.Context, id uint64, at time.Time) error
	Admit(ctx context.Context, id uint64) (bool, error)
	CancelIssued(ctx context.Context, id uint64) (bool, error)
}

// UserStore resolves identities to user records for notification
// addressing.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BookingSummary is the human-readable part of a confirmation handed to
// the notification dispatcher.
type BookingSummary struct {
	BookingID       uint64
	RecipientName   string
	ExhibitionTitle string
	ExhibitionDates string
	Location        string
	SeatCount       uint32
}

// Notifier is the notification dispatcher consumed after a successful
// registration.  Send is best-effort: it reports whether the confirmation
// was handed off, and a false result is recorded on the booking but never
// reverses it.  Retries are the dispatcher's own concern.
type Notifier interface {
	Send(ctx context.Context, recipient string, summary BookingSummary, qrImage string) bool
}

// Admission decides whether registrations are accepted and commits them.
// It is safe for concurrent use; the serialization lives in BookingStore.
type Admission struct {
	Exhibitions ExhibitionStore
	Bookings    BookingStore
	Users       UserStore
	Notifier    Notifier
	Now         func() time.Time // injectable clock, defaults to time.Now
}

// NewAdmission constructs an Admission service.  Notifier may be nil, in
// which case confirmations are skipped and bookings stay unnotified.
func NewAdmission(ex ExhibitionStore, bk BookingStore, us UserStore, n Notifier) *Admission {
	if ex == nil || bk == nil || us == nil {
		panic("nil store passed to NewAdmission")
	}
	return &Admission{Exhibitions: ex, Bookings: bk, Users: us, Notifier: n}
}

func (a *Admission) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// Register validates a registration request and commits it.  The
// precondition order is fixed and each failure is distinct:
//
//  1. exhibition exists            -> repository.ErrExhibitionNotFound
//  2. exhibition bookable today    -> ErrUnavailable
//  3. no prior booking by caller   -> repository.ErrDuplicateBooking
//  4. seats fit remaining capacity -> *repository.CapacityError
//
// Checks 3 and 4 are evaluated inside the same atomic unit that inserts
// the booking; the bookable check reads immutable-enough catalog state
// and may run outside it.  On success the ticket payload is encoded and
// attached, and the confirmation is dispatched outside the transaction;
// a dispatch failure leaves the booking committed with notified=false.
func (a *Admission) Register(ctx context.Context, ident model.Identity, exhibitionID uint64, seats uint32) (*model.Booking, error) {
	if seats < model.MinSeats || seats > model.MaxSeats {
		return nil, ErrSeatCountOutOfRange
	}

	ex, err := a.Exhibitions.GetByID(ctx, exhibitionID)
	if err != nil {
		return nil, err
	}
	if !ex.Bookable(a.now()) {
		return nil, ErrUnavailable
	}

	b, err := a.Bookings.Register(ctx, exhibitionID, ident.ID, seats)
	if err != nil {
		return nil, err
	}

	payload, err := ticket.Encode(b.ID, ident.ID, exhibitionID, seats, a.now())
	if err != nil {
		// The booking stands; a ticket can be re-issued by support.
		log.Printf("admission: encode ticket for booking %d failed: %v", b.ID, err)
		return b, nil
	}
	if err := a.Bookings.AttachTicket(ctx, b.ID, payload); err != nil {
		log.Printf("admission: attach ticket for booking %d failed: %v", b.ID, err)
		return b, nil
	}
	b.TicketPayload = payload

	a.dispatch(ctx, ident, ex, b, payload)
	return b, nil
}

// dispatch renders the QR image and hands the confirmation to the
// notifier.  Everything here is best-effort by contract.
func (a *Admission) dispatch(ctx context.Context, ident model.Identity, ex *model.Exhibition, b *model.Booking, payload string) {
	if a.Notifier == nil {
		return
	}
	qrImage, err := ticket.RenderDataURI(payload)
	if err != nil {
		log.Printf("admission: render qr for booking %d failed: %v", b.ID, err)
		return
	}
	user, err := a.Users.GetByID(ctx, ident.ID)
	if err != nil {
		log.Printf("admission: resolve user %d failed: %v", ident.ID, err)
		return
	}
	summary := BookingSummary{
		BookingID:       b.ID,
		RecipientName:   user.FullName,
		ExhibitionTitle: ex.Title,
		ExhibitionDates: fmt.Sprintf("%s - %s", ex.StartsOn.Format("2006-01-02"), ex.EndsOn.Format("2006-01-02")),
		Location:        ex.Location,
		SeatCount:       b.SeatCount,
	}
	if !a.Notifier.Send(ctx, user.Email, summary, qrImage) {
		return
	}
	sentAt := a.now()
	if err := a.Bookings.MarkNotified(ctx, b.ID, sentAt); err != nil {
		log.Printf("admission: mark notified for booking %d failed: %v", b.ID, err)
		return
	}
	b.Notified = true
	b.NotifiedAt = &sentAt
}

// Cancel deletes a booking while its ticket is unused.  Permitted for the
// owning identity or an admin.  A booking whose ticket was admitted is an
// attendance record and cannot be cancelled.
func (a *Admission) Cancel(ctx context.Context, ident model.Identity, bookingID uint64) error {
	b, err := a.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != ident.ID && !ident.IsAdmin() {
		return ErrForbidden
	}
	ok, err := a.Bookings.CancelIssued(ctx, bookingID)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race against a concurrent admit, or the ticket was
		// already used.  Either way the booking must remain.
		return ErrAlreadyValidated
	}
	return nil
}
