package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

// StatsHandler serves the dashboard aggregates.
type StatsHandler struct {
	Stats *repository.StatsRepo
	Orgs  *repository.OrganizationRepo
}

func NewStatsHandler(s *repository.StatsRepo, o *repository.OrganizationRepo) *StatsHandler {
	return &StatsHandler{Stats: s, Orgs: o}
}

// Organization returns the per-tenant dashboard counters.
func (h *StatsHandler) Organization(c echo.Context) error {
	orgID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgAdmin(c, orgID); err != nil {
		return err
	}
	stats, err := h.Stats.Organization(c.Request().Context(), orgID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Global returns platform-wide counters for the global admin.
func (h *StatsHandler) Global(c echo.Context) error {
	stats, err := h.Stats.Global(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) requireOrgAdmin(c echo.Context, orgID uint64) error {
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
