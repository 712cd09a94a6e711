package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/repository"
	"github.com/galerija/exhibition-booking/internal/ticket"
)

var testDay = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixture(t *testing.T, capacity uint32) (*Admission, *memStore, *fakeNotifier) {
	t.Helper()
	m := newMemStore()
	m.addExhibition(model.Exhibition{
		ID:        1,
		Title:     "Svetlost i senka",
		Location:  "Galerija centar, Beograd",
		StartsOn:  testDay.AddDate(0, 0, -5),
		EndsOn:    testDay.AddDate(0, 0, 5),
		Capacity:  capacity,
		Active:    true,
		Published: true,
	})
	m.addUser(model.User{ID: 7, Email: "ana@example.com", FullName: "Ana", Role: model.RoleVisitor})
	m.addUser(model.User{ID: 8, Email: "marko@example.com", FullName: "Marko", Role: model.RoleVisitor})
	n := &fakeNotifier{result: true}
	a := NewAdmission(m, bookingStore{m}, userStore{m}, n)
	a.Now = func() time.Time { return testDay }
	return a, m, n
}

func TestRegisterSuccess(t *testing.T) {
	a, _, n := fixture(t, 10)

	b, err := a.Register(context.Background(), model.Identity{ID: 7, Role: model.RoleVisitor}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), b.SeatCount)
	assert.Equal(t, model.TicketIssued, b.TicketState)

	// The issued payload decodes back to the booking's identity fields.
	p, err := ticket.Decode(b.TicketPayload)
	require.NoError(t, err)
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, uint64(7), p.IdentityID)
	assert.Equal(t, uint64(1), p.ExhibitionID)
	assert.Equal(t, uint32(2), p.SeatCount)

	// Confirmation went out and was recorded.
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "ana@example.com", n.recipient)
	assert.Equal(t, "Svetlost i senka", n.summary.ExhibitionTitle)
	assert.Contains(t, n.qrImage, "data:image/png;base64,")
	assert.True(t, b.Notified)
	require.NotNil(t, b.NotifiedAt)
}

func TestRegisterExhibitionNotFound(t *testing.T) {
	a, _, _ := fixture(t, 10)
	_, err := a.Register(context.Background(), model.Identity{ID: 7}, 99, 1)
	assert.ErrorIs(t, err, repository.ErrExhibitionNotFound)
}

func TestRegisterUnavailable(t *testing.T) {
	a, m, _ := fixture(t, 10)
	ident := model.Identity{ID: 7}

	m.addExhibition(model.Exhibition{ID: 2, StartsOn: testDay, EndsOn: testDay, Capacity: 10, Active: true, Published: false})
	m.addExhibition(model.Exhibition{ID: 3, StartsOn: testDay, EndsOn: testDay, Capacity: 10, Active: false, Published: true})
	m.addExhibition(model.Exhibition{ID: 4, StartsOn: testDay.AddDate(0, 0, 1), EndsOn: testDay.AddDate(0, 0, 9), Capacity: 10, Active: true, Published: true})
	m.addExhibition(model.Exhibition{ID: 5, StartsOn: testDay.AddDate(0, 0, -9), EndsOn: testDay.AddDate(0, 0, -1), Capacity: 10, Active: true, Published: true})

	for _, id := range []uint64{2, 3, 4, 5} {
		_, err := a.Register(context.Background(), ident, id, 1)
		assert.ErrorIs(t, err, ErrUnavailable, "exhibition %d", id)
	}

	// Window edges are inclusive on both ends.
	m.addExhibition(model.Exhibition{ID: 6, StartsOn: testDay, EndsOn: testDay, Capacity: 10, Active: true, Published: true})
	_, err := a.Register(context.Background(), ident, 6, 1)
	assert.NoError(t, err)
}

func TestRegisterSeatBounds(t *testing.T) {
	a, _, _ := fixture(t, 100)
	ident := model.Identity{ID: 7}
	_, err := a.Register(context.Background(), ident, 1, 0)
	assert.ErrorIs(t, err, ErrSeatCountOutOfRange)
	_, err = a.Register(context.Background(), ident, 1, model.MaxSeats+1)
	assert.ErrorIs(t, err, ErrSeatCountOutOfRange)
}

func TestRegisterDuplicate(t *testing.T) {
	a, _, _ := fixture(t, 10)
	ident := model.Identity{ID: 7}
	_, err := a.Register(context.Background(), ident, 1, 1)
	require.NoError(t, err)
	_, err = a.Register(context.Background(), ident, 1, 1)
	assert.ErrorIs(t, err, repository.ErrDuplicateBooking)
}

func TestRegisterCapacityExceededReportsRemaining(t *testing.T) {
	a, _, _ := fixture(t, 5)
	_, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 3)
	require.NoError(t, err)

	_, err = a.Register(context.Background(), model.Identity{ID: 8}, 1, 3)
	var ce *repository.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint32(2), ce.Remaining)
}

func TestRegisterFullExhibition(t *testing.T) {
	// capacity=5 with existing bookings summing to 5: a request for one
	// more seat fails with remaining=0.
	a, m, _ := fixture(t, 5)
	_, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 5)
	require.NoError(t, err)

	m.addUser(model.User{ID: 9, Email: "nova@example.com", FullName: "Nova"})
	_, err = a.Register(context.Background(), model.Identity{ID: 9}, 1, 1)
	var ce *repository.CapacityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint32(0), ce.Remaining)
	assert.Equal(t, uint32(5), m.seatSum(1))
}

func TestRegisterCapacityRace(t *testing.T) {
	// Capacity 1, two concurrent registrations for distinct identities:
	// exactly one wins, the loser sees remaining=0.
	a, m, _ := fixture(t, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint64{7, 8} {
		wg.Add(1)
		go func(i int, id uint64) {
			defer wg.Done()
			_, errs[i] = a.Register(context.Background(), model.Identity{ID: id}, 1, 1)
		}(i, id)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var ce *repository.CapacityError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, uint32(0), ce.Remaining)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, uint32(1), m.seatSum(1))
}

func TestRegisterCapacityInvariantUnderLoad(t *testing.T) {
	a, m, _ := fixture(t, 12)
	for id := uint64(100); id < 140; id++ {
		m.addUser(model.User{ID: id, Email: "u@example.com", FullName: "U"})
	}

	var wg sync.WaitGroup
	for id := uint64(100); id < 140; id++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, _ = a.Register(context.Background(), model.Identity{ID: id}, 1, uint32(id%3+1))
		}(id)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.seatSum(1), uint32(12))
}

func TestRegisterNotifierFailureKeepsBooking(t *testing.T) {
	a, _, n := fixture(t, 10)
	n.result = false

	b, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n.calls)
	assert.False(t, b.Notified)
	assert.Nil(t, b.NotifiedAt)
	assert.NotEmpty(t, b.TicketPayload)
}

func TestCancelByOwner(t *testing.T) {
	a, m, _ := fixture(t, 5)
	b, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 5)
	require.NoError(t, err)

	require.NoError(t, a.Cancel(context.Background(), model.Identity{ID: 7}, b.ID))
	assert.Equal(t, uint32(0), m.seatSum(1))

	// Cancellation freed the capacity for the next registration.
	_, err = a.Register(context.Background(), model.Identity{ID: 8}, 1, 5)
	assert.NoError(t, err)
}

func TestCancelForbiddenForStranger(t *testing.T) {
	a, _, _ := fixture(t, 5)
	b, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 1)
	require.NoError(t, err)

	err = a.Cancel(context.Background(), model.Identity{ID: 8, Role: model.RoleVisitor}, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admin may cancel on the owner's behalf.
	err = a.Cancel(context.Background(), model.Identity{ID: 8, Role: model.RoleAdmin}, b.ID)
	assert.NoError(t, err)
}

func TestCancelValidatedBookingRejected(t *testing.T) {
	a, m, _ := fixture(t, 5)
	b, err := a.Register(context.Background(), model.Identity{ID: 7}, 1, 1)
	require.NoError(t, err)

	ok, err := bookingStore{m}.Admit(context.Background(), b.ID)
	require.NoError(t, err)
	require.True(t, ok)

	err = a.Cancel(context.Background(), model.Identity{ID: 7}, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyValidated)

	// The booking remains.
	got, err := bookingStore{m}.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, got.Admitted())
}

func TestCancelMissingBooking(t *testing.T) {
	a, _, _ := fixture(t, 5)
	err := a.Cancel(context.Background(), model.Identity{ID: 7}, 404)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}
