package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/service"
)

// AttendanceHandler serves the per-class attendance sheet.  All
// endpoints require staff membership of the class's organization.
type AttendanceHandler struct {
	Svc     *service.AttendanceService
	Classes *repository.ClassRepo
	Orgs    *repository.OrganizationRepo
}

func NewAttendanceHandler(svc *service.AttendanceService, cl *repository.ClassRepo, o *repository.OrganizationRepo) *AttendanceHandler {
	return &AttendanceHandler{Svc: svc, Classes: cl, Orgs: o}
}

type markAttendanceReq struct {
	BookingID uint64 `json:"booking_id"`
	Status    string `json:"status"`
}

type updateAttendanceReq struct {
	Status string `json:"status"`
}

// Sheet returns the roster of a class with per-booking attendance.
func (h *AttendanceHandler) Sheet(c echo.Context) error {
	classID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.authorizeClass(c, classID); err != nil {
		return err
	}
	entries, err := h.Svc.Sheet(c.Request().Context(), classID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load attendance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries, "count": len(entries)})
}

// Mark sets the attendance status of a booking in a class.  Marking is
// an upsert; re-marking overwrites the previous status.
func (h *AttendanceHandler) Mark(c echo.Context) error {
	classID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req markAttendanceReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and status required"})
	}
	if err := h.authorizeClass(c, classID); err != nil {
		return err
	}
	a, err := h.Svc.Mark(c.Request().Context(), classID, req.BookingID, req.Status, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAttendanceStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, present or absent"})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking belongs to another class"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark attendance failed"})
	}
	return c.JSON(http.StatusOK, a)
}

// Update rewrites a stored attendance record by id.
func (h *AttendanceHandler) Update(c echo.Context) error {
	classID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attendanceID, err := pathID(c, "attendanceId")
	if err != nil {
		return err
	}
	var req updateAttendanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.authorizeClass(c, classID); err != nil {
		return err
	}
	if err := h.Svc.Update(c.Request().Context(), classID, attendanceID, req.Status, middleware.UserID(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAttendanceStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, present or absent"})
		case errors.Is(err, repository.ErrAttendanceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attendance record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update attendance failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "attendance updated"})
}

func (h *AttendanceHandler) authorizeClass(c echo.Context, classID uint64) error {
	ctx := c.Request().Context()
	class, err := h.Classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "class not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "load class failed")
	}
	if middleware.Role(c) == model.RoleGlobalAdmin {
		return nil
	}
	memberships, err := h.Orgs.Memberships(ctx, middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
	}
	for _, m := range memberships {
		if m.OrganizationID == class.OrganizationID && m.IsActive && (m.Role == "admin" || m.Role == "coach") {
			return nil
		}
	}
	return echo.NewHTTPError(http.StatusForbidden, "forbidden")
}
