package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/handler"
	"github.com/ihacademy/academy-server/internal/middleware"
)

// RegisterMember registers the endpoints available to any
// authenticated user: browsing organizations, joining and leaving
// them, and managing their own memberships.
func RegisterMember(e *echo.Echo, o *handler.OrganizationHandler, m *handler.MembershipHandler, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.GET("/organizations", o.List)
	g.GET("/organizations/mine", o.ListMine)
	g.GET("/organizations/:id", o.Get)
	g.POST("/organizations/join", o.Join)
	g.POST("/organizations/:id/follow", o.Follow)
	g.DELETE("/organizations/:id/leave", o.Leave)

	g.POST("/memberships", m.Create)
	g.GET("/memberships/mine", m.ListMine)
	g.GET("/memberships/:id", m.Get)
	g.POST("/memberships/:id/cancel", m.Cancel)
	// authorization per target status happens in the handler
	g.PUT("/memberships/:id", m.UpdateStatus)

	// owner-or-admin check happens in the handler
	g.PUT("/users/:id/password", u.ResetPassword)
}
