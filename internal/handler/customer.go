package handler

import (
    "log/slog"

    "github.com/iliyamo/cafe-table-reservation/internal/cart"
    "github.com/iliyamo/cafe-table-reservation/internal/checkout"
    "github.com/iliyamo/cafe-table-reservation/internal/logging"
    "github.com/iliyamo/cafe-table-reservation/internal/reservation"
    "github.com/iliyamo/cafe-table-reservation/internal/session"
    "github.com/iliyamo/cafe-table-reservation/internal/store"
)

// CustomerStores is the slice of the backend the customer endpoints read.
type CustomerStores interface {
    store.CafeStore
    store.MenuStore
    store.VoucherStore
    store.PaymentMethodStore
    store.OrderStore
}

// CustomerHandler groups the collaborators of the authenticated customer
// flow: cafe session and table selection, reservation, cart and checkout.
// Every method assumes JWTAuth and RequireRole already ran.
type CustomerHandler struct {
    Store        CustomerStores
    Sessions     *session.Manager
    Reservations *reservation.Coordinator
    Checkouts    *checkout.Coordinator
    Cart         cart.Store
    // BookingRetries is how many times a FAILED_BOOKING checkout is
    // retried in-request before it is reported.
    BookingRetries int
    Log            *slog.Logger
}

// NewCustomerHandler wires a CustomerHandler.  All dependencies except the
// logger must be non-nil.
func NewCustomerHandler(s CustomerStores, sessions *session.Manager, rc *reservation.Coordinator, cc *checkout.Coordinator, c cart.Store, log *slog.Logger) *CustomerHandler {
    if s == nil || sessions == nil || rc == nil || cc == nil || c == nil {
        panic("nil dependency passed to NewCustomerHandler")
    }
    return &CustomerHandler{
        Store:        s,
        Sessions:     sessions,
        Reservations: rc,
        Checkouts:    cc,
        Cart:         c,
        Log:          logging.OrDiscard(log),
    }
}
