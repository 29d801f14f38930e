// Package handler implements the HTTP endpoints of the server.  Each
// file groups the endpoints of one resource; handlers bind and validate
// input, call repositories or services, and translate sentinel errors
// into status codes.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
