// Package router wires HTTP routes to their handlers and middleware.
// Routes are grouped by audience: public browse and booking endpoints,
// authenticated member endpoints, and organization staff endpoints.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ihacademy/academy-server/internal/handler"
	"github.com/ihacademy/academy-server/internal/middleware"
)

// RegisterRoutes registers the operational endpoints that carry no
// authentication: the health check used by load balancers and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints.  Register, login and
// refresh live under /v1/auth without middleware; /v1/me and logout
// need a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout", a.Logout)
}

// RegisterWebhooks registers the server-to-server gateway callbacks.
// These are authenticated by signature, not by JWT.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/v1/webhooks/payfast", w.PayFastITN)
}
