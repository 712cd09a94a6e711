package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/service"
	"github.com/galerija/exhibition-booking/internal/ticket"
)

// AdmissionHandler is the door-side endpoint: staff scan a ticket and the
// validation state machine decides.  Route-level middleware already
// restricts access to STAFF and ADMIN; the service checks again so the
// rule does not depend on wiring.
type AdmissionHandler struct {
	Validation *service.Validation
}

func NewAdmissionHandler(v *service.Validation) *AdmissionHandler {
	if v == nil {
		panic("nil service passed to NewAdmissionHandler")
	}
	return &AdmissionHandler{Validation: v}
}

type validateReq struct {
	Payload string `json:"payload"` // raw text decoded from the scanned QR symbol
}

// Validate handles POST /v1/admission/validate.
func (h *AdmissionHandler) Validate(c echo.Context) error {
	ident, err := identityFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Payload == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payload required"})
	}

	b, err := h.Validation.Admit(c.Request().Context(), ident, req.Payload)
	if err != nil {
		var fe *ticket.FormatError
		var uv *ticket.UnsupportedVersionError
		switch {
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.As(err, &fe):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fe.Error()})
		case errors.As(err, &uv):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": uv.Error()})
		case errors.Is(err, service.ErrUnknownTicket):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown ticket"})
		case errors.Is(err, service.ErrAlreadyAdmitted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already admitted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validation failed"})
	}

	return c.JSON(http.StatusOK, toBookingResp(b))
}
