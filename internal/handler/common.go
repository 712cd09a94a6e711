package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/model"
)

// identityFrom builds the caller's Identity from the claims JWTAuth stored
// in the context.  The sub claim round-trips through JSON and therefore
// arrives as float64; string is accepted for robustness.
func identityFrom(c echo.Context) (model.Identity, error) {
	var ident model.Identity
	switch v := c.Get("user_id").(type) {
	case float64:
		ident.ID = uint64(v)
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return ident, errors.New("invalid user id claim")
		}
		ident.ID = id
	default:
		return ident, errors.New("missing user id claim")
	}
	if role, ok := c.Get("role").(string); ok {
		ident.Role = role
	}
	if ident.ID == 0 {
		return ident, errors.New("missing user id claim")
	}
	return ident, nil
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}
