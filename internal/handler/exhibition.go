package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/cache"
	"github.com/galerija/exhibition-booking/internal/model"
	"github.com/galerija/exhibition-booking/internal/repository"
)

// ExhibitionHandler serves public catalog browsing and the small admin
// write surface.  Remaining seat counts on public endpoints come from the
// advisory cache and may lag committed state by its TTL; the authoritative
// count is only ever computed inside the admission transaction.
type ExhibitionHandler struct {
	Exhibitions *repository.ExhibitionRepo
	Seats       *cache.SeatCache
}

func NewExhibitionHandler(repo *repository.ExhibitionRepo, seats *cache.SeatCache) *ExhibitionHandler {
	if repo == nil {
		panic("nil repository passed to NewExhibitionHandler")
	}
	return &ExhibitionHandler{Exhibitions: repo, Seats: seats}
}

type exhibitionResp struct {
	ID             uint64 `json:"id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Location       string `json:"location"`
	StartsOn       string `json:"starts_on"`
	EndsOn         string `json:"ends_on"`
	Capacity       uint32 `json:"capacity"`
	RemainingSeats uint32 `json:"remaining_seats"`
	Bookable       bool   `json:"bookable"`
}

func (h *ExhibitionHandler) toResp(c echo.Context, e *model.Exhibition) exhibitionResp {
	remaining, err := h.Seats.Remaining(c.Request().Context(), e.ID, h.Exhibitions.RemainingSeats)
	if err != nil {
		remaining = 0
	}
	return exhibitionResp{
		ID:             e.ID,
		Slug:           e.Slug,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		StartsOn:       e.StartsOn.Format("2006-01-02"),
		EndsOn:         e.EndsOn.Format("2006-01-02"),
		Capacity:       e.Capacity,
		RemainingSeats: remaining,
		Bookable:       e.Bookable(time.Now().UTC()),
	}
}

// List handles GET /v1/exhibitions.  Only published, active exhibitions
// are returned.
func (h *ExhibitionHandler) List(c echo.Context) error {
	items, err := h.Exhibitions.ListPublished(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]exhibitionResp, 0, len(items))
	for i := range items {
		out = append(out, h.toResp(c, &items[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/exhibitions/:id.  Unpublished exhibitions are
// hidden from the public as if they did not exist.
func (h *ExhibitionHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibition id"})
	}
	e, err := h.Exhibitions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrExhibitionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibition not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !e.Published || !e.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibition not found"})
	}
	return c.JSON(http.StatusOK, h.toResp(c, e))
}

type createExhibitionReq struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartsOn    string `json:"starts_on"` // YYYY-MM-DD
	EndsOn      string `json:"ends_on"`   // YYYY-MM-DD
	Capacity    uint32 `json:"capacity"`
	Published   bool   `json:"published"`
}

// Create handles POST /v1/exhibitions (ADMIN).
func (h *ExhibitionHandler) Create(c echo.Context) error {
	var req createExhibitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Title = strings.TrimSpace(req.Title)
	if req.Slug == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title required"})
	}
	starts, err := time.ParseInLocation("2006-01-02", req.StartsOn, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_on"})
	}
	ends, err := time.ParseInLocation("2006-01-02", req.EndsOn, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_on"})
	}
	if ends.Before(starts) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_on before starts_on"})
	}

	e := &model.Exhibition{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsOn:    starts,
		EndsOn:      ends,
		Capacity:    req.Capacity,
		Active:      true,
		Published:   req.Published,
	}
	id, err := h.Exhibitions.Create(c.Request().Context(), e)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create exhibition failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type publishReq struct {
	Published bool `json:"published"`
}

// SetPublished handles PATCH /v1/exhibitions/:id/publish (ADMIN).
func (h *ExhibitionHandler) SetPublished(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibition id"})
	}
	var req publishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Exhibitions.SetPublished(c.Request().Context(), id, req.Published); err != nil {
		if errors.Is(err, repository.ErrExhibitionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibition not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "published": req.Published})
}
