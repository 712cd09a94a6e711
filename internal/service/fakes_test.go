package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/repository"
)

// memStore is an in-memory implementation of ExhibitionStore, BookingStore
// and UserStore.  Register and Admit hold the mutex across their whole
// check-and-write, mirroring the serialization the MySQL repository gets
// from row locks, so the concurrency tests exercise the real invariants.
type memStore struct {
	mu          sync.Mutex
	exhibitions map[uint64]*model.Exhibition
	users       map[uint64]model.User
	bookings    map[uint64]*model.Booking
	nextBooking uint64
}

func newMemStore() *memStore {
	return &memStore{
		exhibitions: make(map[uint64]*model.Exhibition),
		users:       make(map[uint64]model.User),
		bookings:    make(map[uint64]*model.Booking),
	}
}

func (m *memStore) addExhibition(e model.Exhibition) { m.exhibitions[e.ID] = &e }
func (m *memStore) addUser(u model.User)             { m.users[u.ID] = u }

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Exhibition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exhibitions[id]
	if !ok {
		return nil, repository.ErrExhibitionNotFound
	}
	cp := *e
	return &cp, nil
}

// userStore and bookingStore narrow memStore so one fixture can serve all
// three store parameters without GetByID method-set collisions.
type userStore struct{ m *memStore }

func (u userStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	usr, ok := u.m.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return usr, nil
}

type bookingStore struct{ m *memStore }

func (s bookingStore) Register(ctx context.Context, exhibitionID, userID uint64, seats uint32) (*model.Booking, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exhibitions[exhibitionID]
	if !ok {
		return nil, repository.ErrExhibitionNotFound
	}
	var booked uint32
	for _, b := range m.bookings {
		if b.ExhibitionID == exhibitionID {
			if b.UserID == userID {
				return nil, repository.ErrDuplicateBooking
			}
			booked += b.SeatCount
		}
	}
	remaining := uint32(0)
	if e.Capacity > booked {
		remaining = e.Capacity - booked
	}
	if seats > remaining {
		return nil, &repository.CapacityError{Remaining: remaining}
	}
	m.nextBooking++
	b := &model.Booking{
		ID:           m.nextBooking,
		UserID:       userID,
		ExhibitionID: exhibitionID,
		SeatCount:    seats,
		TicketState:  model.TicketIssued,
		CreatedAt:    time.Now().UTC(),
	}
	m.bookings[b.ID] = b
	cp := *b
	return &cp, nil
}

func (s bookingStore) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s bookingStore) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Booking
	for _, b := range s.m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s bookingStore) AttachTicket(ctx context.Context, id uint64, payload string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if b, ok := s.m.bookings[id]; ok && b.TicketPayload == "" {
		b.TicketPayload = payload
	}
	return nil
}

func (s bookingStore) MarkNotified(ctx context.Context, id uint64, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if b, ok := s.m.bookings[id]; ok {
		b.Notified = true
		b.NotifiedAt = &at
	}
	return nil
}

func (s bookingStore) Admit(ctx context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.bookings[id]
	if !ok || b.TicketState != model.TicketIssued {
		return false, nil
	}
	b.TicketState = model.TicketAdmitted
	return true, nil
}

func (s bookingStore) CancelIssued(ctx context.Context, id uint64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	b, ok := s.m.bookings[id]
	if !ok || b.TicketState != model.TicketIssued {
		return false, nil
	}
	delete(s.m.bookings, id)
	return true, nil
}

// seatSum reports the committed seat total for an exhibition.
func (m *memStore) seatSum(exhibitionID uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum uint32
	for _, b := range m.bookings {
		if b.ExhibitionID == exhibitionID {
			sum += b.SeatCount
		}
	}
	return sum
}

// fakeNotifier records sends and answers with a configurable result.
type fakeNotifier struct {
	mu        sync.Mutex
	result    bool
	recipient string
	summary   BookingSummary
	qrImage   string
	calls     int
}

func (n *fakeNotifier) Send(ctx context.Context, recipient string, summary BookingSummary, qrImage string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.recipient = recipient
	n.summary = summary
	n.qrImage = qrImage
	return n.result
}
