package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/cache"
	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/repository"
	"github.com/galerija/exhibition-booking/internal/service"
	"github.com/galerija/exhibition-booking/internal/ticket"
)

// BookingHandler exposes registration and cancellation.  All booking
// mutation flows through the admission service; the handler only binds,
// authorizes and translates errors to HTTP.
type BookingHandler struct {
	Admission *service.Admission
	Bookings  *repository.BookingRepo
	Seats     *cache.SeatCache
}

func NewBookingHandler(adm *service.Admission, bookings *repository.BookingRepo, seats *cache.SeatCache) *BookingHandler {
	if adm == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Admission: adm, Bookings: bookings, Seats: seats}
}

type createBookingReq struct {
	ExhibitionID uint64 `json:"exhibition_id"`
	SeatCount    uint32 `json:"seat_count"`
}

type bookingResp struct {
	ID            uint64     `json:"id"`
	ExhibitionID  uint64     `json:"exhibition_id"`
	SeatCount     uint32     `json:"seat_count"`
	TicketState   string     `json:"ticket_state"`
	TicketPayload string     `json:"ticket_payload,omitempty"`
	Notified      bool       `json:"notified"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:            b.ID,
		ExhibitionID:  b.ExhibitionID,
		SeatCount:     b.SeatCount,
		TicketState:   b.TicketState,
		TicketPayload: b.TicketPayload,
		Notified:      b.Notified,
		NotifiedAt:    b.NotifiedAt,
		CreatedAt:     b.CreatedAt,
	}
}

// Create handles POST /v1/bookings.  Each admission error maps to a
// distinct response so the client can act on it; capacity rejections
// carry the exact remaining count.
func (h *BookingHandler) Create(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ExhibitionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exhibition_id required"})
	}

	b, err := h.Admission.Register(c.Request().Context(), ident, req.ExhibitionID, req.SeatCount)
	if err != nil {
		var ce *repository.CapacityError
		switch {
		case errors.Is(err, repository.ErrExhibitionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibition not found"})
		case errors.Is(err, service.ErrUnavailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "exhibition not available for registration"})
		case errors.Is(err, service.ErrSeatCountOutOfRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be between 1 and 10"})
		case errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already registered for this exhibition"})
		case errors.As(err, &ce):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "not enough seats",
				"remaining": ce.Remaining,
			})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	h.Seats.Invalidate(c.Request().Context(), req.ExhibitionID)
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// ListMine handles GET /v1/bookings, returning the caller's bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingResp, 0, len(items))
	for i := range items {
		out = append(out, toBookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/bookings/:id.  Owners see their own bookings,
// admins see all.
func (h *BookingHandler) Get(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if b.UserID != ident.ID && !ident.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// TicketImage handles GET /v1/bookings/:id/qr, rendering the booking's
// ticket payload as a PNG for download or reprint.
func (h *BookingHandler) TicketImage(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if b.UserID != ident.ID && !ident.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if b.TicketPayload == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no ticket issued"})
	}
	png, err := ticket.RenderPNG(b.TicketPayload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Delete handles DELETE /v1/bookings/:id (cancellation).  Permitted for
// the owner or an admin, and only while the ticket is unused.
func (h *BookingHandler) Delete(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	// Read first so the seat cache can be invalidated for the right
	// exhibition after the delete.
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil && !errors.Is(err, repository.ErrBookingNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := h.Admission.Cancel(c.Request().Context(), ident, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrAlreadyValidated):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already validated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	if b != nil {
		h.Seats.Invalidate(c.Request().Context(), b.ExhibitionID)
	}
	return c.NoContent(http.StatusNoContent)
}
