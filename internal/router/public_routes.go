package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/handler"
)

// PublicHandlers bundles the handlers exposed without authentication.
type PublicHandlers struct {
	Orgs     *handler.OrganizationHandler
	Sports   *handler.SportHandler
	Coaches  *handler.CoachHandler
	Classes  *handler.ClassHandler
	Bookings *handler.BookingHandler
}

// RegisterPublic registers the browse and booking endpoints used by
// participants, who do not hold accounts.  cache, when non-nil, is the
// Redis response cache applied to the read-heavy listing routes.
func RegisterPublic(e *echo.Echo, h PublicHandlers, cache echo.MiddlewareFunc) {
	cached := e.Group("/v1")
	if cache != nil {
		cached.Use(cache)
	}
	cached.GET("/sports", h.Sports.List)
	cached.GET("/classes", h.Classes.List)
	cached.GET("/classes/:id", h.Classes.Get)
	cached.GET("/organizations/invite/:code", h.Orgs.GetByInviteCode)
	cached.GET("/organizations/:id/coaches", h.Coaches.ListByOrganization)
	cached.GET("/coaches/:id", h.Coaches.Get)

	// Booking flows stay uncached: capacity and payment state must be
	// current.
	e.POST("/v1/bookings", h.Bookings.Create)
	e.GET("/v1/bookings", h.Bookings.ListByEmail)
	e.GET("/v1/bookings/:id", h.Bookings.Get)
	e.GET("/v1/bookings/:id/payment-url", h.Bookings.PaymentURL)
	e.GET("/v1/bookings/:id/ical", h.Bookings.ICal)
}
