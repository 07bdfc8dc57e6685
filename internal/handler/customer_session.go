package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/session"
)

// snapshotWait bounds how long entering a cafe waits for the first
// availability snapshot.
const snapshotWait = 3 * time.Second

type sessionView struct {
    CafeID    string        `json:"cafeId"`
    Selected  []string      `json:"selected"`
    Tables    *PublicTables `json:"tables,omitempty"`
    FeedError string        `json:"feedError,omitempty"`
}

func viewSession(s *session.Session) sessionView {
    v := sessionView{CafeID: s.CafeID(), Selected: s.Selection().Selected()}
    if snap, ok := s.Snapshot(); ok {
        t := tablesView(snap)
        v.Tables = &t
    }
    if err := s.FeedErr(); err != nil {
        v.FeedError = err.Error()
    }
    return v
}

// EnterCafe handles POST /v1/cafes/:id/session.  Entering another cafe
// discards the current selection; re-entering the same cafe keeps it.
func (h *CustomerHandler) EnterCafe(c echo.Context) error {
    userID := middleware.UserID(c)
    if userID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    cafeID := c.Param("id")
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if _, err := h.Store.GetCafe(ctx, cafeID); err != nil {
        return respondError(c, "get cafe", err)
    }

    s := h.Sessions.Enter(userID, cafeID)
    waitCtx, stop := context.WithTimeout(c.Request().Context(), snapshotWait)
    defer stop()
    // a missing snapshot is reported through the view, not as an error
    _, _ = s.WaitSnapshot(waitCtx)
    return c.JSON(http.StatusOK, viewSession(s))
}

// GetSession handles GET /v1/session.
func (h *CustomerHandler) GetSession(c echo.Context) error {
    s, ok := h.Sessions.Get(middleware.UserID(c))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active cafe"})
    }
    return c.JSON(http.StatusOK, viewSession(s))
}

// LeaveCafe handles DELETE /v1/session.
func (h *CustomerHandler) LeaveCafe(c echo.Context) error {
    h.Sessions.Leave(middleware.UserID(c))
    return c.NoContent(http.StatusNoContent)
}

// ToggleTable handles POST /v1/session/tables/:table.  The response says
// what the toggle did; no-op outcomes (booked, unknown, limited) are still
// 200 unless the selection limit policy turns them into an error.
func (h *CustomerHandler) ToggleTable(c echo.Context) error {
    s, ok := h.Sessions.Get(middleware.UserID(c))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active cafe"})
    }
    tableID := strings.TrimSpace(c.Param("table"))
    if tableID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "table id required"})
    }
    res, err := s.Toggle(tableID)
    if err != nil {
        return respondError(c, "toggle table", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "table":    tableID,
        "result":   res.String(),
        "changed":  res.Changed(),
        "selected": s.Selection().Selected(),
    })
}

// ClearSelection handles DELETE /v1/session/tables.
func (h *CustomerHandler) ClearSelection(c echo.Context) error {
    s, ok := h.Sessions.Get(middleware.UserID(c))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active cafe"})
    }
    s.Selection().Clear()
    return c.JSON(http.StatusOK, viewSession(s))
}
