package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/handler"
	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
)

// StaffHandlers bundles the handlers behind the staff route group.
type StaffHandlers struct {
	Orgs        *handler.OrganizationHandler
	Sports      *handler.SportHandler
	Coaches     *handler.CoachHandler
	Classes     *handler.ClassHandler
	Bookings    *handler.BookingHandler
	Attendance  *handler.AttendanceHandler
	Memberships *handler.MembershipHandler
	Stats       *handler.StatsHandler
	Users       *handler.UserHandler
}

// RegisterStaff registers the management endpoints.  The role
// middleware gates by global role; each handler then checks the
// caller's membership of the organization that owns the resource, so a
// staff token from one organization cannot touch another's data.
func RegisterStaff(e *echo.Echo, h StaffHandlers, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleGlobalAdmin, model.RoleOrgAdmin, model.RoleCoach))

	g.PUT("/organizations/:id", h.Orgs.Update)
	g.DELETE("/organizations/:id", h.Orgs.Delete)
	g.GET("/organizations/:id/trial", h.Orgs.TrialStatus)
	g.POST("/organizations/:id/upgrade", h.Orgs.Upgrade)
	g.POST("/organizations/:id/invite-code", h.Orgs.RegenerateInviteCode)

	g.POST("/coaches", h.Coaches.Create)
	g.PUT("/coaches/:id", h.Coaches.Update)
	g.DELETE("/coaches/:id", h.Coaches.Delete)

	g.POST("/classes", h.Classes.Create)
	g.PUT("/classes/:id", h.Classes.Update)
	g.DELETE("/classes/:id", h.Classes.Delete)

	g.GET("/classes/:id/bookings", h.Bookings.ListByClass)
	g.GET("/organizations/:id/bookings/recent", h.Bookings.Recent)
	g.PUT("/bookings/:id/move", h.Bookings.Move)
	g.PUT("/bookings/:id/payment", h.Bookings.UpdatePaymentStatus)
	g.POST("/bookings/:id/cancel", h.Bookings.Cancel)
	g.GET("/bookings/:id/payments", h.Bookings.ListPayments)

	g.GET("/classes/:id/attendance", h.Attendance.Sheet)
	g.POST("/classes/:id/attendance", h.Attendance.Mark)
	g.PUT("/classes/:id/attendance/:attendanceId", h.Attendance.Update)

	g.GET("/organizations/:id/memberships", h.Memberships.ListByOrganization)
	g.POST("/memberships/:id/activate", h.Memberships.Activate)
	g.POST("/memberships/:id/expire", h.Memberships.Expire)
	g.POST("/memberships/:id/collect", h.Memberships.Collect)

	g.GET("/stats/organizations/:id", h.Stats.Organization)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleGlobalAdmin))
	admin.POST("/sports", h.Sports.Create)
	admin.DELETE("/sports/:id", h.Sports.Delete)
	admin.GET("/stats/global", h.Stats.Global)
	admin.GET("/users", h.Users.List)
	admin.PUT("/users/:id/active", h.Users.SetActive)
}
