package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/reservation"
    "github.com/iliyamo/cafe-table-reservation/internal/selection"
)

type createReservationReq struct {
    CafeID         string   `json:"cafeId"`
    UserName       string   `json:"userName"`
    Date           string   `json:"date"`
    Time           string   `json:"time"`
    TotalGuests    int      `json:"totalGuests"`
    SelectedTables []string `json:"selectedTables"`
}

// CreateReservation handles POST /v1/reservations.  Missing fields fall
// back to the caller's context: cafeId to the active cafe, userName to
// the display name in the token, selectedTables to the current selection.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
    userID := middleware.UserID(c)
    if userID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body createReservationReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    var sel *selection.State
    s, hasSession := h.Sessions.Get(userID)
    cafeID := strings.TrimSpace(body.CafeID)
    if cafeID == "" && hasSession {
        cafeID = s.CafeID()
    }
    if hasSession && s.CafeID() == cafeID {
        sel = s.Selection()
    }
    userName := strings.TrimSpace(body.UserName)
    if userName == "" {
        userName = middleware.UserName(c)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    req := reservation.Request{
        CafeID:         cafeID,
        UserID:         userID,
        UserName:       userName,
        Date:           body.Date,
        Time:           body.Time,
        TotalGuests:    body.TotalGuests,
        SelectedTables: body.SelectedTables,
    }
    if cafeID != "" {
        cafe, err := h.Store.GetCafe(ctx, cafeID)
        if err != nil {
            return respondError(c, "get cafe", notFoundAs("cafeId", err))
        }
        req.CafeName = cafe.Name
    }

    id, err := h.Reservations.CreateReservation(ctx, req, sel)
    if err != nil {
        return respondError(c, "create reservation", err)
    }
    rsv, err := h.Reservations.Get(ctx, id, userID)
    if err != nil {
        // created but not readable yet; the id is still authoritative
        return c.JSON(http.StatusCreated, echo.Map{"id": id})
    }
    c.Response().Header().Set(echo.HeaderLocation, "/v1/reservations/"+id)
    return c.JSON(http.StatusCreated, rsv)
}

// ListMyReservations handles GET /v1/my-reservations.
func (h *CustomerHandler) ListMyReservations(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    list, err := h.Reservations.ListByUser(ctx, middleware.UserID(c))
    if err != nil {
        return respondError(c, "list reservations", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// GetReservation handles GET /v1/reservations/:id.  Reservations of
// other users are 403.
func (h *CustomerHandler) GetReservation(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rsv, err := h.Reservations.Get(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        return respondError(c, "load reservation", err)
    }
    return c.JSON(http.StatusOK, rsv)
}
