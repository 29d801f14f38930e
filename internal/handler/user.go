package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/config"
	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

// UserHandler serves account administration.  Listing and
// activation toggles are global-admin only; password changes are
// allowed for the account owner too.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

// List returns all user accounts.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users, "count": len(users)})
}

// SetActive enables or disables an account.  Disabled accounts cannot
// log in or refresh tokens.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil || body.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}
	if err := h.Users.SetActive(c.Request().Context(), id, *body.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// ResetPassword sets a new password for an account.  Only the account
// owner or the global admin may do this.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if middleware.Role(c) != model.RoleGlobalAdmin && middleware.UserID(c) != id {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password of at least 8 characters required"})
	}
	if err := h.Users.ResetPassword(c.Request().Context(), id, body.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
