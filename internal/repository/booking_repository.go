package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/galerija/exhibition-booking/internal/model"
)

// BookingRepo owns all mutation of the bookings table.  The two guarded
// operations, Register and Admit, are the only places the capacity
// invariant and the single-admission invariant can be violated, so both
// are written as atomic units here and nowhere else.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// registerAttempts bounds the internal retry loop for lock conflicts.
const registerAttempts = 3

// Register creates a booking inside one transaction that serializes on the
// exhibition row:
//
//	SELECT ... FOR UPDATE on exhibitions          (per-exhibition mutex)
//	duplicate check on (user, exhibition)
//	SUM(seat_count) over existing bookings        (same snapshot)
//	INSERT when seats fit
//
// Two concurrent registrations for the same exhibition therefore apply as
// if one at a time against a single counter.  Deadlocks and lock-wait
// timeouts are retried a bounded number of times with the whole unit;
// exhaustion surfaces ErrConflict.  Returned errors: ErrExhibitionNotFound,
// ErrDuplicateBooking, *CapacityError, ErrConflict.
func (r *BookingRepo) Register(ctx context.Context, exhibitionID, userID uint64, seats uint32) (*model.Booking, error) {
	for attempt := 0; attempt < registerAttempts; attempt++ {
		b, err := r.registerOnce(ctx, exhibitionID, userID, seats)
		if err == nil {
			return b, nil
		}
		if !isTransient(err) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

func (r *BookingRepo) registerOnce(ctx context.Context, exhibitionID, userID uint64, seats uint32) (*model.Booking, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the exhibition row for the duration of the check-and-insert.
	var capacity uint32
	err = tx.QueryRowContext(ctx,
		"SELECT capacity FROM exhibitions WHERE id=? FOR UPDATE", exhibitionID).Scan(&capacity)
	if err == sql.ErrNoRows {
		return nil, ErrExhibitionNotFound
	}
	if err != nil {
		return nil, err
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND exhibition_id=?",
		userID, exhibitionID).Scan(&existing)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateBooking
	}

	var booked uint32
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(seat_count),0) FROM bookings WHERE exhibition_id=?",
		exhibitionID).Scan(&booked)
	if err != nil {
		return nil, err
	}
	remaining := uint32(0)
	if capacity > booked {
		remaining = capacity - booked
	}
	if seats > remaining {
		return nil, &CapacityError{Remaining: remaining}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, exhibition_id, seat_count) VALUES (?,?,?)",
		userID, exhibitionID, seats)
	if err != nil {
		// The unique key backstops the duplicate check should the lock
		// discipline ever be bypassed.
		if isDuplicateKey(err) {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	b := &model.Booking{}
	if err := scanBookingTx(ctx, tx, uint64(id), b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

const bookingCols = "id,user_id,exhibition_id,seat_count,ticket_state,ticket_payload,notified,notified_at,created_at"

func scanBookingTx(ctx context.Context, tx *sql.Tx, id uint64, b *model.Booking) error {
	return scanBookingRow(tx.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=?", id), b)
}

func scanBookingRow(row *sql.Row, b *model.Booking) error {
	var payload sql.NullString
	var notifiedAt sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.ExhibitionID, &b.SeatCount,
		&b.TicketState, &payload, &b.Notified, &notifiedAt, &b.CreatedAt)
	if err != nil {
		return err
	}
	b.TicketPayload = payload.String
	if notifiedAt.Valid {
		t := notifiedAt.Time
		b.NotifiedAt = &t
	}
	return nil
}

// GetByID returns one booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b := &model.Booking{}
	err := scanBookingRow(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=?", id), b)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		var payload sql.NullString
		var notifiedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &b.ExhibitionID, &b.SeatCount,
			&b.TicketState, &payload, &b.Notified, &notifiedAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.TicketPayload = payload.String
		if notifiedAt.Valid {
			t := notifiedAt.Time
			b.NotifiedAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AttachTicket stores the encoded ticket payload on a freshly created
// booking.  The payload is written once and never updated afterwards.
func (r *BookingRepo) AttachTicket(ctx context.Context, id uint64, payload string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET ticket_payload=? WHERE id=? AND ticket_payload IS NULL",
		payload, id)
	return err
}

// MarkNotified records a successful notification dispatch.  Failure to
// dispatch simply leaves the flag false; it is never an error here.
func (r *BookingRepo) MarkNotified(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET notified=1, notified_at=? WHERE id=?", at, id)
	return err
}

// Admit flips the ticket state from ISSUED to ADMITTED with a single
// compare-and-set statement.  The WHERE clause makes the read-check and
// the write one atomic step: of two concurrent scans of the same ticket
// exactly one sees a row flip.  Returns false when the ticket was already
// admitted.
func (r *BookingRepo) Admit(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET ticket_state=? WHERE id=? AND ticket_state=?",
		model.TicketAdmitted, id, model.TicketIssued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CancelIssued deletes a booking only while its ticket is still unused.
// The condition rides in the DELETE itself so a concurrent admit wins the
// race cleanly.  Returns false when nothing was deleted, i.e. the ticket
// was admitted in the meantime.  Deleting implicitly frees capacity for
// later registrations.
func (r *BookingRepo) CancelIssued(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM bookings WHERE id=? AND ticket_state=?", id, model.TicketIssued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// isTransient reports whether err is a MySQL lock conflict worth retrying:
// 1213 deadlock victim, 1205 lock wait timeout.
func isTransient(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}
