package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/utils"
)

// MembershipHandler manages recurring memberships and their debit-order
// mandates.
type MembershipHandler struct {
	Memberships *repository.MembershipRepo
	Orgs        *repository.OrganizationRepo
}

func NewMembershipHandler(m *repository.MembershipRepo, o *repository.OrganizationRepo) *MembershipHandler {
	return &MembershipHandler{Memberships: m, Orgs: o}
}

type membershipReq struct {
	OrganizationID   uint64 `json:"organization_id"`
	PriceCents       uint32 `json:"price_cents"`
	BillingFrequency string `json:"billing_frequency"`
}

func validBillingFrequency(f string) bool {
	return f == model.BillingMonthly || f == model.BillingWeekly || f == model.BillingBiWeekly
}

// Create opens a pending membership for the authenticated user.  It
// stays pending until the debit-order mandate is signed and Activate is
// called.
func (h *MembershipHandler) Create(c echo.Context) error {
	var req membershipReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.OrganizationID == 0 || req.PriceCents == 0 || !validBillingFrequency(req.BillingFrequency) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_id, price_cents and a valid billing_frequency required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Orgs.GetByID(ctx, req.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organization failed"})
	}
	m := model.Membership{
		UserID:           middleware.UserID(c),
		OrganizationID:   req.OrganizationID,
		Status:           model.MembershipPending,
		StartDate:        time.Now().UTC(),
		PriceCents:       req.PriceCents,
		BillingFrequency: req.BillingFrequency,
	}
	if err := h.Memberships.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a pending or active membership already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create membership failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

// Get returns a membership visible to its owner or the organization's
// admins.
func (h *MembershipHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.Memberships.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load membership failed"})
	}
	if err := h.authorizeView(c, m); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// ListMine returns the authenticated user's memberships.
func (h *MembershipHandler) ListMine(c echo.Context) error {
	memberships, err := h.Memberships.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list memberships failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": memberships, "count": len(memberships)})
}

// ListByOrganization returns all memberships of an organization for its
// admins.
func (h *MembershipHandler) ListByOrganization(c echo.Context) error {
	orgID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgAdmin(c, orgID); err != nil {
		return err
	}
	memberships, err := h.Memberships.ListByOrganization(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list memberships failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": memberships, "count": len(memberships)})
}

// Activate turns a pending membership active.  A mandate reference is
// generated if the gateway did not supply one, and the first billing
// date is stamped one period after the start date.
func (h *MembershipHandler) Activate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		MandateRef *string `json:"mandate_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.requireMembershipOrgAdmin(c, id); err != nil {
		return err
	}
	ref := body.MandateRef
	if ref == nil {
		generated, err := utils.NewMandateRef()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate mandate reference failed"})
		}
		ref = &generated
	}
	return h.transition(c, id, model.MembershipActive, ref)
}

// Cancel stops a pending or active membership.  The member themselves
// or an organization admin may cancel.
func (h *MembershipHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.Memberships.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load membership failed"})
	}
	if err := h.authorizeView(c, m); err != nil {
		return err
	}
	return h.transition(c, id, model.MembershipCancelled, nil)
}

// Collect records a debit-order collection run against an active
// membership: a transaction reference is generated for the batch file
// and the next billing date advances one period.  Admin only.
func (h *MembershipHandler) Collect(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireMembershipOrgAdmin(c, id); err != nil {
		return err
	}
	txRef, err := utils.NewTransactionRef()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate transaction reference failed"})
	}
	m, err := h.Memberships.AdvanceBilling(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMembershipNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "membership is not collectable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "advance billing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"membership": m, "transaction_ref": txRef})
}

// Expire marks an active membership expired at the end of its paid
// period.  Admin only.
func (h *MembershipHandler) Expire(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireMembershipOrgAdmin(c, id); err != nil {
		return err
	}
	return h.transition(c, id, model.MembershipExpired, nil)
}

// UpdateStatus moves a membership to the requested status, dispatching
// to the matching transition with its authorization rules.
func (h *MembershipHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Status     string  `json:"status"`
		MandateRef *string `json:"mandate_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch body.Status {
	case model.MembershipActive:
		if err := h.requireMembershipOrgAdmin(c, id); err != nil {
			return err
		}
		ref := body.MandateRef
		if ref == nil {
			generated, err := utils.NewMandateRef()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate mandate reference failed"})
			}
			ref = &generated
		}
		return h.transition(c, id, model.MembershipActive, ref)
	case model.MembershipCancelled:
		m, err := h.Memberships.GetByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load membership failed"})
		}
		if err := h.authorizeView(c, m); err != nil {
			return err
		}
		return h.transition(c, id, model.MembershipCancelled, nil)
	case model.MembershipExpired:
		if err := h.requireMembershipOrgAdmin(c, id); err != nil {
			return err
		}
		return h.transition(c, id, model.MembershipExpired, nil)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active, cancelled or expired"})
}

func (h *MembershipHandler) transition(c echo.Context, id uint64, to string, mandateRef *string) error {
	m, err := h.Memberships.Transition(c.Request().Context(), id, to, mandateRef)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMembershipNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "transition not allowed from current status"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update membership failed"})
	}
	return c.JSON(http.StatusOK, m)
}

// authorizeView permits the membership's owner, the organization's
// admins and the global admin.
func (h *MembershipHandler) authorizeView(c echo.Context, m model.Membership) error {
	if middleware.Role(c) == model.RoleGlobalAdmin || middleware.UserID(c) == m.UserID {
		return nil
	}
	return h.requireOrgAdmin(c, m.OrganizationID)
}

func (h *MembershipHandler) requireMembershipOrgAdmin(c echo.Context, id uint64) error {
	m, err := h.Memberships.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "membership not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "load membership failed")
	}
	return h.requireOrgAdmin(c, m.OrganizationID)
}

func (h *MembershipHandler) requireOrgAdmin(c echo.Context, orgID uint64) error {
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
