package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/checkout"
    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/model"
    "github.com/iliyamo/cafe-table-reservation/internal/selection"
)

type checkoutReq struct {
    PaymentMethodID string `json:"paymentMethodId"`
    VoucherID       string `json:"voucherId"`
}

type checkoutResp struct {
    State        checkout.State         `json:"state"`
    Transitions  []checkout.State       `json:"transitions"`
    Order        *model.Order           `json:"order,omitempty"`
    Breakdown    model.PaymentBreakdown `json:"breakdown"`
    Booked       []string               `json:"booked"`
    FailedTables []string               `json:"failedTables,omitempty"`
    Error        string                 `json:"error,omitempty"`
    Message      string                 `json:"message,omitempty"`
}

func viewCheckout(res *checkout.Result) checkoutResp {
    out := checkoutResp{
        State:        res.State,
        Transitions:  res.Transitions,
        Order:        res.Order,
        Breakdown:    res.Breakdown,
        Booked:       res.Booked,
        FailedTables: res.FailedTables(),
    }
    if out.Booked == nil {
        out.Booked = []string{}
    }
    return out
}

func (h *CustomerHandler) voucher(ctx context.Context, id string) (*model.Voucher, error) {
    id = strings.TrimSpace(id)
    if id == "" {
        return nil, nil
    }
    v, err := h.Store.GetVoucher(ctx, id)
    if err != nil {
        return nil, notFoundAs("voucherId", err)
    }
    return &v, nil
}

// selectionFor returns the caller's selection when it belongs to cafeID.
func (h *CustomerHandler) selectionFor(userID, cafeID string) *selection.State {
    if s, ok := h.Sessions.Get(userID); ok && s.CafeID() == cafeID {
        return s.Selection()
    }
    return nil
}

// Quote handles POST /v1/reservations/:id/quote.  It prices the cart of
// the reservation's cafe without side effects.
func (h *CustomerHandler) Quote(c echo.Context) error {
    var body checkoutReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    userID := middleware.UserID(c)
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rsv, err := h.Reservations.Get(ctx, c.Param("id"), userID)
    if err != nil {
        return respondError(c, "load reservation", err)
    }
    v, err := h.voucher(ctx, body.VoucherID)
    if err != nil {
        return respondError(c, "load voucher", err)
    }
    breakdown, lines, err := h.Checkouts.Quote(ctx, userID, rsv.CafeID, v)
    if err != nil {
        return respondError(c, "quote", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservationId": rsv.ID, "items": lines, "breakdown": breakdown})
}

// Checkout handles POST /v1/reservations/:id/checkout.  The order is saved
// first and the reserved tables are booked afterwards.  A failed order
// save is 500; tables that could not be booked are listed in
// failedTables, and with strict booking the run is 409 once the in-request
// retries are used up.
func (h *CustomerHandler) Checkout(c echo.Context) error {
    var body checkoutReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    userID := middleware.UserID(c)
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    rsv, err := h.Reservations.Get(ctx, c.Param("id"), userID)
    if err != nil {
        return respondError(c, "load reservation", err)
    }
    req := checkout.Request{UserID: userID, Reservation: rsv}
    if id := strings.TrimSpace(body.PaymentMethodID); id != "" {
        pm, err := h.Store.GetPaymentMethod(ctx, id)
        if err != nil {
            return respondError(c, "load payment method", notFoundAs("paymentMethodId", err))
        }
        req.PaymentMethod = &pm
    }
    if req.Voucher, err = h.voucher(ctx, body.VoucherID); err != nil {
        return respondError(c, "load voucher", err)
    }

    log := h.Log.With("user_id", userID, "reservation_id", rsv.ID)
    res, err := h.Checkouts.Checkout(ctx, req, h.selectionFor(userID, rsv.CafeID), checkout.Callbacks{
        OnFailure: func(r *checkout.Result, err error) {
            log.Warn("checkout settled with failure", "state", r.State, "err", err)
        },
    })
    for i := 0; i < h.BookingRetries && res != nil && res.State == checkout.FailedBooking; i++ {
        log.Info("retrying table booking", "attempt", i+1, "tables", res.FailedTables())
        err = h.Checkouts.RetryBooking(ctx, res)
    }

    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, viewCheckout(res))
    case res == nil || res.State == checkout.Pending:
        return respondError(c, "checkout", err)
    case checkout.IsBookingError(err):
        out := viewCheckout(res)
        out.Error = "booking failed"
        out.Message = err.Error()
        return c.JSON(http.StatusConflict, out)
    }
    out := viewCheckout(res)
    out.Error = "save order failed"
    out.Message = err.Error()
    return c.JSON(http.StatusInternalServerError, out)
}

// History handles GET /v1/history.
func (h *CustomerHandler) History(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    orders, err := h.Store.ListOrdersByUser(ctx, middleware.UserID(c))
    if err != nil {
        return respondError(c, "list orders", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": orders})
}
