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

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Orgs   *repository.OrganizationRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, o *repository.OrganizationRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Orgs: o, Tokens: t}
}

// ----- DTOs -----

type registerOrgReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`

	// Exactly one of these may be set.  Organization creates a new
	// academy with the caller as its admin; InviteCode joins an
	// existing one as a member.  Neither yields a plain member account.
	Organization *registerOrgReq `json:"organization"`
	InviteCode   string          `json:"invite_code"`
}

type loginReq struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User         model.User          `json:"user"`
	Organization *model.Organization `json:"organization,omitempty"`
	Access       tokenPart           `json:"access"`
	Refresh      tokenPart           `json:"refresh"`
}

// Register creates a user account, and in the same transaction either
// creates a new organization with the user as its admin or joins an
// existing one by invite code.  A failure at any step rolls everything
// back so no orphaned user or organization is left behind.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password/name required"})
	}
	if req.Organization != nil && req.InviteCode != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization and invite_code are mutually exclusive"})
	}

	role := model.RoleMember
	if req.Organization != nil {
		if strings.TrimSpace(req.Organization.Name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization name required"})
		}
		role = model.RoleOrgAdmin
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Resolve the invite code before opening the transaction so a bad
	// code fails fast.
	var joinOrg *model.Organization
	if req.InviteCode != "" {
		org, err := h.Orgs.GetByInviteCode(ctx, req.InviteCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid invite code"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup invite code failed"})
		}
		joinOrg = &org
	}

	tx, err := h.Users.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	uid, err := h.Users.CreateTx(ctx, tx, req.Username, req.Email, req.Password, req.Name, role, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	var createdOrg *model.Organization
	switch {
	case req.Organization != nil:
		now := time.Now().UTC()
		trialEnd := now.AddDate(0, 0, h.Cfg.TrialDays)
		org := model.Organization{
			Name:               strings.TrimSpace(req.Organization.Name),
			Description:        req.Organization.Description,
			Email:              req.Organization.Email,
			Phone:              req.Organization.Phone,
			PlanType:           "starter",
			SubscriptionStatus: model.SubscriptionTrial,
			TrialStartDate:     &now,
			TrialEndDate:       &trialEnd,
		}
		// A collision on the unique invite_code retries with a fresh
		// code; the failed insert does not poison the transaction.
		for attempt := 0; ; attempt++ {
			code, err := utils.NewInviteCode()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organization failed"})
			}
			org.InviteCode = code
			err = h.Orgs.CreateTx(ctx, tx, &org)
			if err == nil {
				break
			}
			if errors.Is(err, repository.ErrInviteCodeTaken) && attempt < 2 {
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organization failed"})
		}
		if err := h.Orgs.AddMemberTx(ctx, tx, uid, org.ID, "admin"); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link organization failed"})
		}
		createdOrg = &org
	case joinOrg != nil:
		if err := h.Orgs.AddMemberTx(ctx, tx, uid, joinOrg.ID, "member"); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join organization failed"})
		}
		createdOrg = joinOrg
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return h.issueTokens(c, http.StatusCreated, u, createdOrg)
}

// Login verifies credentials (username or email) and returns a fresh
// token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	login := strings.ToLower(strings.TrimSpace(req.Username))
	if login == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, login)
	if errors.Is(err, sql.ErrNoRows) && strings.Contains(login, "@") {
		u, err = h.Users.GetByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issueTokens(c, http.StatusOK, u, nil)
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	return h.issueTokens(c, http.StatusOK, u, nil)
}

// Logout revokes the presented refresh token, or all of the caller's
// refresh tokens when none is given and the request is authenticated.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token or bearer token required"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile and the organizations
// they belong to.
func (h *AuthHandler) Me(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	orgs, err := h.Orgs.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load organizations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "organizations": orgs})
}

func (h *AuthHandler) issueTokens(c echo.Context, status int, u model.User, org *model.Organization) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		User:         u,
		Organization: org,
		Access:       tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:      tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
