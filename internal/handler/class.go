package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

// ClassHandler serves class scheduling: CRUD for organization admins
// and availability listings for everyone.
type ClassHandler struct {
	Classes *repository.ClassRepo
	Coaches *repository.CoachRepo
	Orgs    *repository.OrganizationRepo
}

func NewClassHandler(cl *repository.ClassRepo, co *repository.CoachRepo, o *repository.OrganizationRepo) *ClassHandler {
	return &ClassHandler{Classes: cl, Coaches: co, Orgs: o}
}

type classReq struct {
	OrganizationID    uint64    `json:"organization_id"`
	SportID           uint64    `json:"sport_id"`
	CoachID           uint64    `json:"coach_id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Capacity          uint32    `json:"capacity"`
	PriceCents        uint32    `json:"price_cents"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern"`
	Location          *string   `json:"location"`
	Requirements      *string   `json:"requirements"`
}

func (r classReq) validate() string {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return "name required"
	case r.OrganizationID == 0 || r.SportID == 0 || r.CoachID == 0:
		return "organization_id, sport_id and coach_id required"
	case r.StartTime.IsZero() || r.EndTime.IsZero():
		return "start_time and end_time required"
	case !r.EndTime.After(r.StartTime):
		return "end_time must be after start_time"
	case r.Capacity == 0:
		return "capacity must be positive"
	}
	return ""
}

// List returns classes with live availability.  Filters are mutually
// exclusive: ?organization_id=, ?coach_id= or ?date=YYYY-MM-DD.
func (h *ClassHandler) List(c echo.Context) error {
	var f repository.ClassFilter
	if v := c.QueryParam("organization_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid organization_id"})
		}
		f.OrganizationID = id
	}
	if v := c.QueryParam("coach_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coach_id"})
		}
		f.CoachID = id
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
		f.Date = &day
	}
	classes, err := h.Classes.ListWithAvailability(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list classes failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes, "count": len(classes)})
}

// Get returns one class with its availability.
func (h *ClassHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	class, err := h.Classes.Availability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	return c.JSON(http.StatusOK, class)
}

// Create schedules a class.  The coach must belong to the same
// organization and the caller must administer it.
func (h *ClassHandler) Create(c echo.Context) error {
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.requireOrgAdmin(c, req.OrganizationID); err != nil {
		return err
	}
	ctx := c.Request().Context()
	coach, err := h.Coaches.GetByID(ctx, req.CoachID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "coach not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load coach failed"})
	}
	if coach.OrganizationID != req.OrganizationID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coach belongs to another organization"})
	}

	class := model.Class{
		OrganizationID:    req.OrganizationID,
		SportID:           req.SportID,
		CoachID:           req.CoachID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Capacity:          req.Capacity,
		PriceCents:        req.PriceCents,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
		Location:          req.Location,
		Requirements:      req.Requirements,
	}
	if err := h.Classes.Create(ctx, &class); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create class failed"})
	}
	return c.JSON(http.StatusCreated, class)
}

// Update rewrites a class.  Capacity may shrink below the current
// booking count; existing bookings stand and the class simply stops
// accepting new ones.
func (h *ClassHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	existing, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	if err := h.requireOrgAdmin(c, existing.OrganizationID); err != nil {
		return err
	}
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.OrganizationID = existing.OrganizationID // not changeable
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	coach, err := h.Coaches.GetByID(ctx, req.CoachID)
	if err != nil || coach.OrganizationID != existing.OrganizationID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coach"})
	}

	existing.SportID = req.SportID
	existing.CoachID = req.CoachID
	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.Capacity = req.Capacity
	existing.PriceCents = req.PriceCents
	existing.IsRecurring = req.IsRecurring
	existing.RecurrencePattern = req.RecurrencePattern
	existing.Location = req.Location
	existing.Requirements = req.Requirements
	if err := h.Classes.Update(ctx, &existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update class failed"})
	}
	return c.JSON(http.StatusOK, existing)
}

// Delete removes a class that has no live bookings.
func (h *ClassHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	existing, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	if err := h.requireOrgAdmin(c, existing.OrganizationID); err != nil {
		return err
	}
	if err := h.Classes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete class failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClassHandler) requireOrgAdmin(c echo.Context, orgID uint64) error {
	if middleware.Role(c) == model.RoleGlobalAdmin {
		return nil
	}
	ok, err := h.Orgs.IsAdmin(c.Request().Context(), middleware.UserID(c), orgID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}
