package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

// SportHandler serves the sports lookup table.
type SportHandler struct {
	Sports *repository.SportRepo
}

func NewSportHandler(s *repository.SportRepo) *SportHandler {
	return &SportHandler{Sports: s}
}

type sportReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// List returns all sports.  Public; sits behind the response cache.
func (h *SportHandler) List(c echo.Context) error {
	sports, err := h.Sports.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sports failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sports, "count": len(sports)})
}

// Create adds a sport.  Global admin only.
func (h *SportHandler) Create(c echo.Context) error {
	var req sportReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	s := model.Sport{Name: strings.TrimSpace(req.Name), Color: req.Color, Icon: req.Icon}
	if err := h.Sports.Create(c.Request().Context(), &s); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "sport already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sport failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Delete removes a sport unless classes still reference it.
func (h *SportHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Sports.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sport not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "sport is in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete sport failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
