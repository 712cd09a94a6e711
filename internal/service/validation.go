package service

import (
	"context"
	"errors"

	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/repository"
	"github.com/galerija/exhibition-booking/internal/ticket"
)

// Validation is the ticket state machine used at the door.  A ticket has
// two states, ISSUED and ADMITTED, and a single transition between them.
// Admit is the only way to take it.
type Validation struct {
	Bookings BookingStore
}

func NewValidation(bk BookingStore) *Validation {
	if bk == nil {
		panic("nil store passed to NewValidation")
	}
	return &Validation{Bookings: bk}
}

// Admit decodes a scanned payload and transitions the referenced booking
// to ADMITTED exactly once.
//
// Error order: ErrForbidden for non-staff callers; a codec FormatError or
// UnsupportedVersionError for unreadable payloads; ErrUnknownTicket when
// no booking matches or the payload's identity/exhibition disagree with
// the stored row (tamper guard); ErrAlreadyAdmitted on replay.  The
// replay check and the state flip are one atomic compare-and-set in the
// store, so two concurrent scans of one ticket resolve to a single
// admission.
func (v *Validation) Admit(ctx context.Context, ident model.Identity, scanned string) (*model.Booking, error) {
	if !ident.IsStaff() {
		return nil, ErrForbidden
	}

	p, err := ticket.Decode(scanned)
	if err != nil {
		return nil, err
	}

	b, err := v.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrUnknownTicket
		}
		return nil, err
	}
	if b.UserID != p.IdentityID || b.ExhibitionID != p.ExhibitionID {
		return nil, ErrUnknownTicket
	}

	ok, err := v.Bookings.Admit(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyAdmitted
	}
	b.TicketState = model.TicketAdmitted
	return b, nil
}
