package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/ihacademy/academy-server/internal/config"
)

func newCachedEcho(t *testing.T, maxBody int, body string) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "academy:cache",
		MaxBodyBytes: maxBody,
	}
	e := echo.New()
	e.GET("/v1/sports", func(c echo.Context) error {
		return c.String(http.StatusOK, body)
	}, NewRedisCache(cfg, rdb))
	return e
}

func getSports(e *echo.Echo) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sports", nil))
	return rec
}

func TestCache_HitServesStoredBody(t *testing.T) {
	const body = `{"items":[{"id":1,"name":"tennis"}]}`
	e := newCachedEcho(t, 1024, body)

	first := getSports(e)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, body, first.Body.String())

	second := getSports(e)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, body, second.Body.String())
}

func TestCache_OversizedResponseNotStored(t *testing.T) {
	const body = "0123456789abcdef"
	e := newCachedEcho(t, 8, body)

	first := getSports(e)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, body, first.Body.String())

	// the over-limit body was not stored, so the next request falls
	// through to the handler instead of replaying a truncated copy
	second := getSports(e)
	assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
	assert.Equal(t, body, second.Body.String())
}
