package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/model"
)

type cartItemReq struct {
    CafeID     string `json:"cafeId"`
    MenuItemID string `json:"menuItemId"`
    Quantity   int    `json:"quantity"`
}

// cafeParam reads the cafe of a cart request from ?cafe_id=, falling back
// to the caller's active cafe.
func (h *CustomerHandler) cafeParam(c echo.Context, given string) string {
    if id := strings.TrimSpace(given); id != "" {
        return id
    }
    if id := strings.TrimSpace(c.QueryParam("cafe_id")); id != "" {
        return id
    }
    if s, ok := h.Sessions.Get(middleware.UserID(c)); ok {
        return s.CafeID()
    }
    return ""
}

// GetCart handles GET /v1/cart.
func (h *CustomerHandler) GetCart(c echo.Context) error {
    cafeID := h.cafeParam(c, "")
    if cafeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cafe_id required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    return h.writeCart(ctx, c, cafeID, http.StatusOK)
}

// AddCartItem handles POST /v1/cart/items.  Name and price come from the
// menu, never from the client; adding an item already in the cart raises
// its quantity.
func (h *CustomerHandler) AddCartItem(c echo.Context) error {
    var body cartItemReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    cafeID := h.cafeParam(c, body.CafeID)
    if cafeID == "" || strings.TrimSpace(body.MenuItemID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cafeId and menuItemId required"})
    }
    if body.Quantity == 0 {
        body.Quantity = 1
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    item, err := h.Store.GetMenuItem(ctx, cafeID, strings.TrimSpace(body.MenuItemID))
    if err != nil {
        return respondError(c, "get menu item", notFoundAs("menuItemId", err))
    }
    line := model.OrderLine{MenuItemID: item.ID, Name: item.Name, UnitPrice: item.Price, Quantity: body.Quantity, CafeID: cafeID}
    if err := h.Cart.Add(ctx, middleware.UserID(c), line); err != nil {
        return respondError(c, "add to cart", err)
    }
    return h.writeCart(ctx, c, cafeID, http.StatusCreated)
}

// UpdateCartItem handles PATCH /v1/cart/items/:item.  A quantity of zero
// removes the line.
func (h *CustomerHandler) UpdateCartItem(c echo.Context) error {
    var body cartItemReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    cafeID := h.cafeParam(c, body.CafeID)
    if cafeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cafe_id required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Cart.SetQuantity(ctx, middleware.UserID(c), cafeID, c.Param("item"), body.Quantity); err != nil {
        return respondError(c, "update cart", err)
    }
    return h.writeCart(ctx, c, cafeID, http.StatusOK)
}

// RemoveCartItem handles DELETE /v1/cart/items/:item.
func (h *CustomerHandler) RemoveCartItem(c echo.Context) error {
    cafeID := h.cafeParam(c, "")
    if cafeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cafe_id required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Cart.Remove(ctx, middleware.UserID(c), cafeID, c.Param("item")); err != nil {
        return respondError(c, "remove from cart", err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ClearCart handles DELETE /v1/cart.
func (h *CustomerHandler) ClearCart(c echo.Context) error {
    cafeID := h.cafeParam(c, "")
    if cafeID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cafe_id required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Cart.ClearCafe(ctx, middleware.UserID(c), cafeID); err != nil {
        return respondError(c, "clear cart", err)
    }
    return c.NoContent(http.StatusNoContent)
}

// writeCart writes the cart of cafeID with the given status.
func (h *CustomerHandler) writeCart(ctx context.Context, c echo.Context, cafeID string, status int) error {
    lines, err := h.Cart.Lines(ctx, middleware.UserID(c), cafeID)
    if err != nil {
        return respondError(c, "load cart", err)
    }
    subtotal := decimal.Zero
    for _, l := range lines {
        subtotal = subtotal.Add(l.LineTotal())
    }
    return c.JSON(status, echo.Map{"cafeId": cafeID, "items": lines, "subtotal": subtotal})
}
