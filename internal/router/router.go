package router // registers the HTTP routes for the booking service

import (
	"github.com/labstack/echo/v4"

	"github.com/galerija/exhibition-booking/internal/handler"
	"github.com/galerija/exhibition-booking/internal/middleware"
	"github.com/galerija/exhibition-booking/internal/model"
)

// Register wires every route group onto the provided Echo instance.
// Public browsing requires no token; booking endpoints accept any
// authenticated role; admission validation is restricted to door staff
// and admins; catalog writes are admin only.
func Register(e *echo.Echo, jwtSecret string,
	auth *handler.AuthHandler,
	exhibitions *handler.ExhibitionHandler,
	bookings *handler.BookingHandler,
	admission *handler.AdmissionHandler,
) {
	e.GET("/healthz", handler.Health)

	// Identity collaborator: signup and login, no token required.
	ag := e.Group("/v1/auth")
	ag.POST("/register", auth.Register)
	ag.POST("/login", auth.Login)

	// Public catalog browsing.
	e.GET("/v1/exhibitions", exhibitions.List)
	e.GET("/v1/exhibitions/:id", exhibitions.Get)

	// Booking operations for any authenticated caller.
	bg := e.Group("/v1/bookings")
	bg.Use(middleware.JWTAuth(jwtSecret))
	bg.Use(middleware.RequireRole(model.RoleVisitor, model.RoleStaff, model.RoleAdmin))
	bg.POST("", bookings.Create)
	bg.GET("", bookings.ListMine)
	bg.GET("/:id", bookings.Get)
	bg.GET("/:id/qr", bookings.TicketImage)
	bg.DELETE("/:id", bookings.Delete)

	// Door-side ticket validation, staff and admins only.
	vg := e.Group("/v1/admission")
	vg.Use(middleware.JWTAuth(jwtSecret))
	vg.Use(middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	vg.POST("/validate", admission.Validate)

	// Catalog writes, admin only.
	xg := e.Group("/v1/exhibitions")
	xg.Use(middleware.JWTAuth(jwtSecret))
	xg.Use(middleware.RequireRole(model.RoleAdmin))
	xg.POST("", exhibitions.Create)
	xg.PATCH("/:id/publish", exhibitions.SetPublished)
}
