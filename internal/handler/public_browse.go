// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes let
// unauthenticated users look at cafes, menus, table availability and the
// voucher and payment catalogues.

package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/availability"
    "github.com/iliyamo/cafe-table-reservation/internal/model"
    "github.com/iliyamo/cafe-table-reservation/internal/store"
)

// PublicStores is the read-only slice of the backend PublicHandler needs.
type PublicStores interface {
    store.CafeStore
    store.MenuStore
    store.TableStore
    store.VoucherStore
    store.PaymentMethodStore
}

// PublicHandler serves unauthenticated browsing.
type PublicHandler struct {
    Store  PublicStores
    Filter availability.SeatFilter // hides layout markers from table lists
}

func NewPublicHandler(s PublicStores, f availability.SeatFilter) *PublicHandler {
    return &PublicHandler{Store: s, Filter: f}
}

// PublicTables is the table listing of one cafe in display order.
type PublicTables struct {
    CafeID string        `json:"cafeId"`
    Items  []model.Table `json:"items"`
    Free   int           `json:"free"`
    Total  int           `json:"total"`
}

// GetCafes lists cafes.  ?q= filters by a case-insensitive substring of
// the name or address.
func (h *PublicHandler) GetCafes(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    cafes, err := h.Store.ListCafes(ctx)
    if err != nil {
        return respondError(c, "list cafes", err)
    }
    q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
    out := make([]model.Cafe, 0, len(cafes))
    for _, cf := range cafes {
        if q != "" && !strings.Contains(strings.ToLower(cf.Name), q) && !strings.Contains(strings.ToLower(cf.Address), q) {
            continue
        }
        out = append(out, cf)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetCafe returns one cafe.
func (h *PublicHandler) GetCafe(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    cf, err := h.Store.GetCafe(ctx, c.Param("id"))
    if err != nil {
        return respondError(c, "get cafe", err)
    }
    return c.JSON(http.StatusOK, cf)
}

// GetMenu lists the menu of a cafe, optionally narrowed by ?category=.
func (h *PublicHandler) GetMenu(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    cafeID := c.Param("id")
    if _, err := h.Store.GetCafe(ctx, cafeID); err != nil {
        return respondError(c, "get cafe", err)
    }
    items, err := h.Store.ListMenu(ctx, cafeID)
    if err != nil {
        return respondError(c, "list menu", err)
    }
    category := strings.TrimSpace(c.QueryParam("category"))
    out := make([]model.MenuItem, 0, len(items))
    for _, it := range items {
        if category != "" && !strings.EqualFold(it.Category, category) {
            continue
        }
        out = append(out, it)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTables returns a one-shot availability view of a cafe.  Clients that
// need live updates use the websocket feed instead.
func (h *PublicHandler) GetTables(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    cafeID := c.Param("id")
    if _, err := h.Store.GetCafe(ctx, cafeID); err != nil {
        return respondError(c, "get cafe", err)
    }
    tables, err := h.Store.ListTables(ctx, cafeID)
    if err != nil {
        return respondError(c, "list tables", err)
    }
    snap := availability.NewSnapshot(cafeID, h.Filter.Tables(tables), time.Now().UTC())
    return c.JSON(http.StatusOK, tablesView(snap))
}

func tablesView(snap availability.Snapshot) PublicTables {
    rows := snap.Rows()
    return PublicTables{CafeID: snap.CafeID, Items: rows, Free: snap.FreeCount(), Total: len(rows)}
}

// GetVouchers lists every voucher.
func (h *PublicHandler) GetVouchers(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    vs, err := h.Store.ListVouchers(ctx)
    if err != nil {
        return respondError(c, "list vouchers", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": vs})
}

// GetPaymentMethods lists every payment method.
func (h *PublicHandler) GetPaymentMethods(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    pms, err := h.Store.ListPaymentMethods(ctx)
    if err != nil {
        return respondError(c, "list payment methods", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": pms})
}
