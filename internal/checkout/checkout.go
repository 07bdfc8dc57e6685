// Package checkout records a paid order and books the reserved tables.
//
// A run walks PENDING -> SAVING_ORDER -> BOOKING_TABLES -> DONE. The order
// write is a single create; the table updates that follow are independent
// of it and of each other, so a table that fails to flip is logged as a
// PartialBookingFailure while the run still completes. With StrictBooking
// such a run stops in FAILED_BOOKING instead, and RetryBooking re-attempts
// only the tables that failed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/cart"
	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/pricing"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// BookingError is reported in FAILED_BOOKING and lists every table that
// could not be marked booked.
type BookingError struct {
	Failures []*apperr.PartialBookingFailure
}

func (e *BookingError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.TableID
	}
	return fmt.Sprintf("could not book tables %s", strings.Join(ids, ", "))
}

// Request is one payment confirmation.
type Request struct {
	UserID        string
	Reservation   model.Reservation
	PaymentMethod *model.PaymentMethod
	Voucher       *model.Voucher
	// Lines overrides the cart contents when non-nil.
	Lines []model.OrderLine
}

// Callbacks are fired when a run settles. OnSuccess fires at most once
// per run, including a DONE reached through RetryBooking.
type Callbacks struct {
	OnSuccess func(*Result)
	OnFailure func(*Result, error)
}

// Result is the outcome of a run. It is owned by the caller and is not
// safe for concurrent use.
type Result struct {
	State       State
	Transitions []State
	Order       *model.Order
	Breakdown   model.PaymentBreakdown
	Booked      []string
	Failures    []*apperr.PartialBookingFailure
	Err         error

	reservation model.Reservation
	sel         *selection.State
	cb          Callbacks
	successOnce sync.Once
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

// FailedTables returns the ids of tables that are not booked yet.
func (r *Result) FailedTables() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.TableID
	}
	return ids
}

// Options tune a Coordinator.
type Options struct {
	// StrictBooking ends a run with failed table updates in FAILED_BOOKING.
	StrictBooking bool
}

// Deps are the collaborators of a Coordinator. Publisher may be nil.
type Deps struct {
	Orders    store.OrderStore
	Tables    store.TableStore
	Cart      cart.Store
	Pricing   pricing.Engine
	Publisher queue.Publisher
	Log       *slog.Logger
}

// Coordinator runs checkouts.
type Coordinator struct {
	orders  store.OrderStore
	tables  store.TableStore
	cart    cart.Store
	pricing pricing.Engine
	pub     queue.Publisher
	log     *slog.Logger
	opts    Options
	now     func() time.Time
}

// NewCoordinator wires a Coordinator. It panics when a required
// dependency is missing.
func NewCoordinator(d Deps, opts Options) *Coordinator {
	if d.Orders == nil || d.Tables == nil || d.Cart == nil {
		panic("nil dependency passed to checkout.NewCoordinator")
	}
	return &Coordinator{
		orders:  d.Orders,
		tables:  d.Tables,
		cart:    d.Cart,
		pricing: d.Pricing,
		pub:     d.Publisher,
		log:     logging.OrDiscard(d.Log),
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices the cart of userID for cafeID without side effects.
func (c *Coordinator) Quote(ctx context.Context, userID, cafeID string, voucher *model.Voucher) (model.PaymentBreakdown, []model.OrderLine, error) {
	lines, err := c.cart.Lines(ctx, userID, cafeID)
	if err != nil {
		return model.PaymentBreakdown{}, nil, apperr.Backend("load cart", err)
	}
	return c.pricing.Compute(cafeID, lines, voucher), lines, nil
}

// Checkout runs one attempt. Validation failures leave the run in PENDING
// and fire no callback. The returned error is also stored in Result.Err.
func (c *Coordinator) Checkout(ctx context.Context, req Request, sel *selection.State, cb Callbacks) (*Result, error) {
	res := &Result{reservation: req.Reservation, sel: sel, cb: cb}
	res.enter(Pending)
	rsv := req.Reservation

	if err := validate(req); err != nil {
		res.Err = err
		return res, err
	}

	lines := req.Lines
	if lines == nil {
		var err error
		lines, err = c.cart.Lines(ctx, req.UserID, rsv.CafeID)
		if err != nil {
			res.Err = apperr.Backend("load cart", err)
			return res, res.Err
		}
	}
	items := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.CafeID == rsv.CafeID && l.Quantity > 0 {
			items = append(items, l)
		}
	}
	res.Breakdown = c.pricing.Compute(rsv.CafeID, items, req.Voucher)
	if len(items) == 0 && !res.Breakdown.GrandTotal.IsZero() {
		res.Err = apperr.Invalid("items", "order is empty")
		return res, res.Err
	}

	res.enter(SavingOrder)
	order := model.Order{
		ReservationID:     rsv.ID,
		CafeID:            rsv.CafeID,
		Items:             items,
		TotalPrice:        res.Breakdown.Base,
		AppFeeAmount:      res.Breakdown.AppFee,
		DownPaymentAmount: res.Breakdown.DownPayment,
		PaymentMethod:     req.PaymentMethod.Name,
		UserID:            req.UserID,
		Status:            model.OrderStatusActive,
	}
	if req.Voucher != nil && res.Breakdown.VoucherApplied {
		name := req.Voucher.Name
		discount := res.Breakdown.VoucherDiscount
		order.VoucherName = &name
		order.VoucherDiscount = &discount
	}
	saved, err := c.orders.CreateOrder(ctx, order)
	if err != nil {
		res.enter(FailedOrder)
		res.Err = apperr.Backend("save order", err)
		c.log.Warn("checkout failed to save order", "reservation_id", rsv.ID, "err", err)
		c.settleFailure(res)
		return res, res.Err
	}
	res.Order = &saved
	if err := c.cart.ClearCafe(ctx, req.UserID, rsv.CafeID); err != nil {
		c.log.Warn("clear cart failed", "user_id", req.UserID, "cafe_id", rsv.CafeID, "err", err)
	}

	res.enter(BookingTables)
	c.book(ctx, res, rsv.SelectedTables)
	return c.finish(ctx, res)
}

// RetryBooking re-attempts the tables of a FAILED_BOOKING run. It is a
// no-op for runs in any other state.
func (c *Coordinator) RetryBooking(ctx context.Context, res *Result) error {
	if res == nil || res.State != FailedBooking {
		return nil
	}
	pending := res.FailedTables()
	res.Failures = nil
	res.Err = nil
	res.enter(BookingTables)
	c.book(ctx, res, pending)
	_, err := c.finish(ctx, res)
	return err
}

func (c *Coordinator) book(ctx context.Context, res *Result, tables []string) {
	cafeID := res.reservation.CafeID
	for _, id := range tables {
		if err := c.tables.SetTableBooked(ctx, cafeID, id, true); err != nil {
			f := &apperr.PartialBookingFailure{CafeID: cafeID, TableID: id, Err: err}
			res.Failures = append(res.Failures, f)
			c.log.Warn("partial booking failure",
				"reservation_id", res.reservation.ID,
				"cafe_id", cafeID,
				"table_id", id,
				"err", err,
			)
			continue
		}
		res.Booked = append(res.Booked, id)
	}
}

func (c *Coordinator) finish(ctx context.Context, res *Result) (*Result, error) {
	if len(res.Failures) > 0 && c.opts.StrictBooking {
		res.enter(FailedBooking)
		res.Err = &BookingError{Failures: res.Failures}
		c.settleFailure(res)
		return res, res.Err
	}

	res.enter(Done)
	if res.sel != nil {
		res.sel.Clear()
	}
	c.publish(ctx, res)
	c.log.Info("checkout done",
		"order_id", res.Order.ID,
		"reservation_id", res.reservation.ID,
		"booked", res.Booked,
		"unbooked", res.FailedTables(),
	)
	res.successOnce.Do(func() {
		if res.cb.OnSuccess != nil {
			res.cb.OnSuccess(res)
		}
	})
	return res, nil
}

func (c *Coordinator) settleFailure(res *Result) {
	if res.sel != nil {
		res.sel.Clear()
	}
	if res.cb.OnFailure != nil {
		res.cb.OnFailure(res, res.Err)
	}
}

func (c *Coordinator) publish(ctx context.Context, res *Result) {
	if c.pub == nil || res.Order == nil {
		return
	}
	rsv := res.reservation
	ev := queue.BookingConfirmedEvent{
		OrderID:       res.Order.ID,
		ReservationID: rsv.ID,
		UserID:        res.Order.UserID,
		CafeID:        rsv.CafeID,
		CafeName:      rsv.CafeName,
		Date:          rsv.Date,
		Time:          rsv.Time,
		Guests:        rsv.TotalGuests,
		Tables:        rsv.SelectedTables,
		FailedTables:  res.FailedTables(),
		TotalPrice:    res.Order.TotalPrice.String(),
		DownPayment:   res.Order.DownPaymentAmount.String(),
		PaymentMethod: res.Order.PaymentMethod,
		ConfirmedAt:   c.now().Format(time.RFC3339),
	}
	if err := c.pub.Publish(ctx, queue.TopicBookingConfirmed, ev); err != nil {
		c.log.Warn("publish booking.confirmed failed", "order_id", res.Order.ID, "err", err)
	}
}

func validate(req Request) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return apperr.Required("userId")
	case strings.TrimSpace(req.Reservation.ID) == "":
		return apperr.Required("reservationId")
	case strings.TrimSpace(req.Reservation.CafeID) == "":
		return apperr.Required("cafeId")
	case req.PaymentMethod == nil || strings.TrimSpace(req.PaymentMethod.Name) == "":
		return apperr.Required("paymentMethod")
	}
	return nil
}

// IsBookingError reports whether err came from a FAILED_BOOKING run.
func IsBookingError(err error) bool {
	var be *BookingError
	return errors.As(err, &be)
}
