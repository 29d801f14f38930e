package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

// CoachHandler manages the coach profiles of an organization.
type CoachHandler struct {
	Coaches *repository.CoachRepo
	Orgs    *repository.OrganizationRepo
}

func NewCoachHandler(co *repository.CoachRepo, o *repository.OrganizationRepo) *CoachHandler {
	return &CoachHandler{Coaches: co, Orgs: o}
}

type coachReq struct {
	UserID          uint64  `json:"user_id"`
	OrganizationID  uint64  `json:"organization_id"`
	Specializations *string `json:"specializations"`
	Bio             *string `json:"bio"`
	HourlyRateCents *uint32 `json:"hourly_rate_cents"`
}

// ListByOrganization returns the coaches of an organization.  Public.
func (h *CoachHandler) ListByOrganization(c echo.Context) error {
	orgID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	coaches, err := h.Coaches.ListByOrganization(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list coaches failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": coaches, "count": len(coaches)})
}

// Get returns a single coach profile.
func (h *CoachHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	coach, err := h.Coaches.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coach not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load coach failed"})
	}
	return c.JSON(http.StatusOK, coach)
}

// Create adds a coach profile to an organization.  The caller must be
// an admin of that organization.
func (h *CoachHandler) Create(c echo.Context) error {
	var req coachReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.OrganizationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and organization_id required"})
	}
	if err := h.requireOrgAdmin(c, req.OrganizationID); err != nil {
		return err
	}
	coach := model.Coach{
		UserID:          req.UserID,
		OrganizationID:  req.OrganizationID,
		Specializations: req.Specializations,
		Bio:             req.Bio,
		HourlyRateCents: req.HourlyRateCents,
	}
	if err := h.Coaches.Create(c.Request().Context(), &coach); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create coach failed"})
	}
	return c.JSON(http.StatusCreated, coach)
}

// Update rewrites a coach profile.
func (h *CoachHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	coach, err := h.Coaches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coach not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load coach failed"})
	}
	if err := h.requireOrgAdmin(c, coach.OrganizationID); err != nil {
		return err
	}
	var req coachReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Specializations != nil {
		coach.Specializations = req.Specializations
	}
	if req.Bio != nil {
		coach.Bio = req.Bio
	}
	if req.HourlyRateCents != nil {
		coach.HourlyRateCents = req.HourlyRateCents
	}
	if err := h.Coaches.Update(ctx, &coach); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update coach failed"})
	}
	return c.JSON(http.StatusOK, coach)
}

// Delete removes a coach profile unless classes still reference it.
func (h *CoachHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	coach, err := h.Coaches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coach not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load coach failed"})
	}
	if err := h.requireOrgAdmin(c, coach.OrganizationID); err != nil {
		return err
	}
	if err := h.Coaches.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "coach has classes"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete coach failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CoachHandler) requireOrgAdmin(c echo.Context, orgID uint64) error {
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
