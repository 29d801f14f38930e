package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/config"
	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/utils"
)

// OrganizationHandler serves the tenant endpoints: public browsing,
// joining and following, admin updates and the trial/upgrade flow.
type OrganizationHandler struct {
	Cfg  config.Config
	Orgs *repository.OrganizationRepo
}

func NewOrganizationHandler(cfg config.Config, o *repository.OrganizationRepo) *OrganizationHandler {
	return &OrganizationHandler{Cfg: cfg, Orgs: o}
}

type orgUpdateReq struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	Logo           *string `json:"logo"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	AccentColor    *string `json:"accent_color"`
}

type joinReq struct {
	InviteCode string `json:"invite_code"`
}

type upgradeReq struct {
	PlanType string `json:"plan_type"`
}

// List returns active organizations.  Global admins see inactive ones
// too.
func (h *OrganizationHandler) List(c echo.Context) error {
	includeInactive := middleware.Role(c) == model.RoleGlobalAdmin
	orgs, err := h.Orgs.ListAll(c.Request().Context(), includeInactive)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list organizations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orgs, "count": len(orgs)})
}

// Get returns one organization by id.
func (h *OrganizationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	org, err := h.Orgs.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organization failed"})
	}
	return c.JSON(http.StatusOK, org)
}

// GetByInviteCode resolves an organization from its invite code.  The
// endpoint is public so branded invite pages can render before signup.
func (h *OrganizationHandler) GetByInviteCode(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite code required"})
	}
	org, err := h.Orgs.GetByInviteCode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organization failed"})
	}
	if !org.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
	}
	return c.JSON(http.StatusOK, org)
}

// ListMine returns the organizations the authenticated user belongs to
// or follows.
func (h *OrganizationHandler) ListMine(c echo.Context) error {
	orgs, err := h.Orgs.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list organizations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orgs, "count": len(orgs)})
}

// Update patches organization profile fields.  Only an admin of the
// organization (or a global admin) may update it.
func (h *OrganizationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgAdmin(c, id); err != nil {
		return err
	}
	var req orgUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	patch := map[string]interface{}{}
	setIf := func(col string, v *string) {
		if v != nil {
			patch[col] = *v
		}
	}
	setIf("name", req.Name)
	setIf("description", req.Description)
	setIf("address", req.Address)
	setIf("phone", req.Phone)
	setIf("email", req.Email)
	setIf("logo", req.Logo)
	setIf("primary_color", req.PrimaryColor)
	setIf("secondary_color", req.SecondaryColor)
	setIf("accent_color", req.AccentColor)

	org, err := h.Orgs.Update(c.Request().Context(), id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update organization failed"})
	}
	return c.JSON(http.StatusOK, org)
}

// Delete removes an organization.  Restricted to global admins by the
// route, so no per-org check here.
func (h *OrganizationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Orgs.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete organization failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Join adds the authenticated user to an organization via invite code.
func (h *OrganizationHandler) Join(c echo.Context) error {
	var req joinReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.InviteCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite_code required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	org, err := h.Orgs.GetByInviteCode(ctx, req.InviteCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid invite code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup invite code failed"})
	}
	if !org.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid invite code"})
	}
	uo, err := h.Orgs.AddMember(ctx, middleware.UserID(c), org.ID, "member")
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already a member"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"membership": uo, "organization": org})
}

// Follow links the authenticated user to an organization by id without
// an invite code.  Followers see public schedules but hold no member
// privileges; the link row carries the member role either way.
func (h *OrganizationHandler) Follow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organization failed"})
	}
	if !org.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
	}
	uo, err := h.Orgs.AddMember(ctx, middleware.UserID(c), org.ID, "member")
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already following"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "follow failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"membership": uo})
}

// Leave removes the authenticated user's link to an organization.
func (h *OrganizationHandler) Leave(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Orgs.RemoveMember(c.Request().Context(), middleware.UserID(c), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not a member"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "leave failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// TrialStatus reports where the organization stands in its free trial.
func (h *OrganizationHandler) TrialStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.Orgs.TrialStatus(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load trial status failed"})
	}
	return c.JSON(http.StatusOK, st)
}

// Upgrade moves an organization off trial onto a paid plan.  Only an
// admin of the organization may upgrade it.
func (h *OrganizationHandler) Upgrade(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgAdmin(c, id); err != nil {
		return err
	}
	var req upgradeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.PlanType) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_type required"})
	}
	org, err := h.Orgs.Update(c.Request().Context(), id, map[string]interface{}{
		"plan_type":           strings.TrimSpace(req.PlanType),
		"subscription_status": model.SubscriptionActive,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
	}
	return c.JSON(http.StatusOK, org)
}

// RegenerateInviteCode replaces the organization's invite code, cutting
// off the old one.
func (h *OrganizationHandler) RegenerateInviteCode(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgAdmin(c, id); err != nil {
		return err
	}
	ctx := c.Request().Context()
	for attempt := 0; ; attempt++ {
		code, err := utils.NewInviteCode()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
		}
		_, err = h.Orgs.DB().ExecContext(ctx,
			"UPDATE organizations SET invite_code = ? WHERE id = ?", code, id)
		if err == nil {
			break
		}
		if low := strings.ToLower(err.Error()); attempt < 2 && strings.Contains(low, "1062") {
			continue
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update code failed"})
	}
	org, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organization failed"})
	}
	return c.JSON(http.StatusOK, org)
}

// requireOrgAdmin allows global admins and admins of the given
// organization; everyone else gets 403.  The returned error is an
// *echo.HTTPError ready for the framework's error handler.
func (h *OrganizationHandler) requireOrgAdmin(c echo.Context, orgID uint64) error {
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
