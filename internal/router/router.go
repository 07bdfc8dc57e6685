package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cafe-table-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/cafe-table-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the versioned API: the liveness and readiness checks.
func RegisterRoutes(e *echo.Echo, checks map[string]func(context.Context) error) {
	// Liveness for load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)
	// Readiness pings the store (and redis when configured).
	e.GET("/readyz", handler.Readiness(checks))
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token and keeps the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body or a bearer token, so it
	// is not behind JWTAuth.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CUSTOMER"))
	auth.GET("/me", a.Me)

	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  mws wrap the
// catalogue reads (the response cache); the live table feed is registered
// without them.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, feed *handler.TableFeedHandler, mws ...echo.MiddlewareFunc) {
    g := e.Group("/v1", mws...)
    g.GET("/cafes", p.GetCafes)
    g.GET("/cafes/:id", p.GetCafe)
    g.GET("/cafes/:id/menu", p.GetMenu)
    // One-shot availability; never cached because booking flags change
    // underneath it.
    g.GET("/cafes/:id/tables", p.GetTables)
    g.GET("/vouchers", p.GetVouchers)
    g.GET("/payment-methods", p.GetPaymentMethods)

    // Live availability over a websocket.
    e.GET("/v1/cafes/:id/tables/ws", feed.Stream)
}
