package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihacademy/academy-server/internal/utils"
)

const testSecret = "unit-test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string, inner echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(inner)(c)
	require.NoError(t, err)
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "coach", 15)
	require.NoError(t, err)

	var gotID uint64
	var gotRole string
	rec := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token, func(c echo.Context) error {
		gotID = UserID(c)
		gotRole = Role(c)
		return c.NoContent(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), gotID)
	assert.Equal(t, "coach", gotRole)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec := doRequest(t, JWTAuth(testSecret), "", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("another-secret", 7, "coach", 15)
	require.NoError(t, err)

	rec := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "member", 15)
	require.NoError(t, err)

	chain := func(inner echo.HandlerFunc) echo.HandlerFunc {
		return JWTAuth(testSecret)(RequireRole("organization_admin", "coach")(inner))
	}
	rec := doRequest(t, chain, "Bearer "+tok.Token, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminTok, err := utils.NewAccessToken(testSecret, 7, "organization_admin", 15)
	require.NoError(t, err)
	rec = doRequest(t, chain, "Bearer "+adminTok.Token, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
