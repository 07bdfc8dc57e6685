package router

import (
	"github.com/iliyamo/cafe-table-reservation/internal/handler"
	"github.com/iliyamo/cafe-table-reservation/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT and the CUSTOMER role.  Customers enter a cafe, pick
// tables against its live availability, reserve them, fill a cart and pay.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Cafe session and table selection.
	g.POST("/cafes/:id/session", h.EnterCafe)
	g.GET("/session", h.GetSession)
	g.DELETE("/session", h.LeaveCafe)
	g.POST("/session/tables/:table", h.ToggleTable)
	g.DELETE("/session/tables", h.ClearSelection)

	// Reservations.
	g.POST("/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.ListMyReservations)
	g.GET("/reservations/:id", h.GetReservation)

	// Cart, keyed by cafe.
	g.GET("/cart", h.GetCart)
	g.POST("/cart/items", h.AddCartItem)
	g.PATCH("/cart/items/:item", h.UpdateCartItem)
	g.DELETE("/cart/items/:item", h.RemoveCartItem)
	g.DELETE("/cart", h.ClearCart)

	// Pricing, payment and order history.
	g.POST("/reservations/:id/quote", h.Quote)
	g.POST("/reservations/:id/checkout", h.Checkout)
	g.GET("/history", h.History)
}
