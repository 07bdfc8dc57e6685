package checkout

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/cart"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/pricing"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
)

type fakeOrders struct {
	mu     sync.Mutex
	err    error
	orders []model.Order
}

func (f *fakeOrders) CreateOrder(_ context.Context, o model.Order) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Order{}, f.err
	}
	o.ID = "order-1"
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeOrders) ListOrdersByUser(context.Context, string) ([]model.Order, error) {
	return f.orders, nil
}

type fakeTables struct {
	mu     sync.Mutex
	fail   map[string]error
	booked []string
	calls  []string
}

func (f *fakeTables) ListTables(context.Context, string) ([]model.Table, error) { return nil, nil }

func (f *fakeTables) SetTableBooked(_ context.Context, _, tableID string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tableID)
	if err := f.fail[tableID]; err != nil {
		return err
	}
	f.booked = append(f.booked, tableID)
	return nil
}

type recordingPub struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPub) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload)
	return nil
}

type fixture struct {
	orders *fakeOrders
	tables *fakeTables
	cart   *cart.Memory
	pub    *recordingPub
	sel    *selection.State
	coord  *Coordinator

	successes int
	failures  []error
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		orders: &fakeOrders{},
		tables: &fakeTables{fail: map[string]error{}},
		cart:   cart.NewMemory(),
		pub:    &recordingPub{},
		sel:    selection.New("c1", selection.Options{}),
	}
	f.coord = NewCoordinator(Deps{
		Orders: f.orders, Tables: f.tables, Cart: f.cart,
		Pricing: pricing.NewEngine(), Publisher: f.pub,
	}, opts)
	ctx := context.Background()
	_ = f.cart.Add(ctx, "u1", model.OrderLine{MenuItemID: "m1", Name: "Latte", UnitPrice: decimal.NewFromInt(25000), Quantity: 2, CafeID: "c1"})
	_ = f.cart.Add(ctx, "u1", model.OrderLine{MenuItemID: "m7", Name: "Tea", UnitPrice: decimal.NewFromInt(9000), Quantity: 1, CafeID: "c2"})
	for _, id := range []string{"T1", "T2", "T3"} {
		_, _ = f.sel.Toggle(id, nil)
	}
	return f
}

func (f *fixture) callbacks() Callbacks {
	return Callbacks{
		OnSuccess: func(*Result) { f.successes++ },
		OnFailure: func(_ *Result, err error) { f.failures = append(f.failures, err) },
	}
}

func request() Request {
	return Request{
		UserID: "u1",
		Reservation: model.Reservation{
			ID: "r1", CafeID: "c1", CafeName: "Kopi Satu", UserID: "u1",
			Date: "2024-05-01", Time: "19:30", TotalGuests: 4,
			SelectedTables: []string{"T1", "T2", "T3"},
		},
		PaymentMethod: &model.PaymentMethod{ID: "p1", Name: "QRIS"},
		Voucher:       &model.Voucher{Name: "HEMAT10", Discount: decimal.NewFromInt(10000), MinimumSpend: decimal.NewFromInt(50000)},
	}
}

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	res, err := f.coord.Checkout(ctx, request(), f.sel, f.callbacks())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	want := []State{Pending, SavingOrder, BookingTables, Done}
	if !reflect.DeepEqual(res.Transitions, want) {
		t.Fatalf("transitions = %v", res.Transitions)
	}
	if f.successes != 1 || len(f.failures) != 0 {
		t.Fatalf("callbacks: success=%d failure=%v", f.successes, f.failures)
	}
	if f.sel.Count() != 0 {
		t.Fatal("selection not cleared")
	}
	if lines, _ := f.cart.Lines(ctx, "u1", "c1"); len(lines) != 0 {
		t.Fatalf("cart for cafe not cleared: %+v", lines)
	}
	if lines, _ := f.cart.Lines(ctx, "u1", "c2"); len(lines) != 1 {
		t.Fatal("cart of another cafe was touched")
	}
	if !reflect.DeepEqual(f.tables.booked, []string{"T1", "T2", "T3"}) {
		t.Fatalf("booked = %v", f.tables.booked)
	}

	o := f.orders.orders[0]
	if len(o.Items) != 1 || o.Items[0].MenuItemID != "m1" {
		t.Fatalf("order items = %+v", o.Items)
	}
	if !o.TotalPrice.Equal(decimal.NewFromInt(42000)) || !o.DownPaymentAmount.Equal(decimal.NewFromInt(21000)) {
		t.Fatalf("order amounts total=%s down=%s", o.TotalPrice, o.DownPaymentAmount)
	}
	if o.VoucherName == nil || *o.VoucherName != "HEMAT10" || !o.VoucherDiscount.Equal(decimal.NewFromInt(10000)) {
		t.Fatal("voucher not recorded")
	}
	if o.Status != model.OrderStatusActive || o.PaymentMethod != "QRIS" {
		t.Fatalf("order = %+v", o)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("expected one booking event, got %d", len(f.pub.events))
	}
	ev := f.pub.events[0].(queue.BookingConfirmedEvent)
	if ev.OrderID != "order-1" || ev.TotalPrice != "42000" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestCheckoutPartialBookingStillSucceeds(t *testing.T) {
	f := newFixture(t, Options{})
	f.tables.fail["T2"] = errors.New("deadline exceeded")
	res, err := f.coord.Checkout(context.Background(), request(), f.sel, f.callbacks())
	if err != nil || res.State != Done {
		t.Fatalf("checkout = %v, %v", res.State, err)
	}
	if !reflect.DeepEqual(f.tables.calls, []string{"T1", "T2", "T3"}) {
		t.Fatalf("remaining tables not attempted: %v", f.tables.calls)
	}
	if len(res.Failures) != 1 || res.Failures[0].TableID != "T2" {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if len(f.orders.orders) != 1 {
		t.Fatal("order rolled back")
	}
	if f.successes != 1 || f.sel.Count() != 0 {
		t.Fatalf("success=%d selection=%d", f.successes, f.sel.Count())
	}
}

func TestCheckoutFailedOrder(t *testing.T) {
	f := newFixture(t, Options{})
	f.orders.err = errors.New("UNAVAILABLE: backend offline")
	res, err := f.coord.Checkout(context.Background(), request(), f.sel, f.callbacks())
	if res.State != FailedOrder {
		t.Fatalf("state = %v", res.State)
	}
	if err == nil || err.Error() != "UNAVAILABLE: backend offline" {
		t.Fatalf("err = %v", err)
	}
	if len(f.failures) != 1 || f.failures[0].Error() != "UNAVAILABLE: backend offline" || f.successes != 0 {
		t.Fatalf("callbacks: success=%d failures=%v", f.successes, f.failures)
	}
	if len(f.tables.calls) != 0 {
		t.Fatal("tables booked without an order")
	}
	if lines, _ := f.cart.Lines(context.Background(), "u1", "c1"); len(lines) != 1 {
		t.Fatal("cart cleared on failed order")
	}
}

func TestCheckoutValidationStaysPending(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request, *fixture)
	}{
		{"no payment method", func(r *Request, _ *fixture) { r.PaymentMethod = nil }},
		{"blank payment method", func(r *Request, _ *fixture) { r.PaymentMethod = &model.PaymentMethod{} }},
		{"no reservation", func(r *Request, _ *fixture) { r.Reservation.ID = "" }},
		{"empty cart with amount due", func(r *Request, f *fixture) {
			_ = f.cart.ClearCafe(context.Background(), "u1", "c1")
			r.Voucher = nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			req := request()
			tc.mutate(&req, f)
			res, err := f.coord.Checkout(context.Background(), req, f.sel, f.callbacks())
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if res.State != Pending || len(res.Transitions) != 1 {
				t.Fatalf("state = %v %v", res.State, res.Transitions)
			}
			if len(f.orders.orders) != 0 || len(f.tables.calls) != 0 {
				t.Fatal("side effects on validation failure")
			}
			if f.successes != 0 || len(f.failures) != 0 {
				t.Fatal("callbacks fired on validation failure")
			}
			if f.sel.Count() != 3 {
				t.Fatal("selection cleared on validation failure")
			}
		})
	}
}

func TestCheckoutEmptyCartWithZeroTotal(t *testing.T) {
	f := newFixture(t, Options{})
	f.coord.pricing = pricing.Engine{AppFee: decimal.Zero, DownPaymentRatio: decimal.RequireFromString("0.5")}
	_ = f.cart.ClearCafe(context.Background(), "u1", "c1")
	req := request()
	req.Voucher = nil
	res, err := f.coord.Checkout(context.Background(), req, f.sel, f.callbacks())
	if err != nil || res.State != Done {
		t.Fatalf("zero-total checkout = %v, %v", res.State, err)
	}
}

func TestStrictBookingAndRetry(t *testing.T) {
	f := newFixture(t, Options{StrictBooking: true})
	f.tables.fail["T3"] = errors.New("write conflict")
	ctx := context.Background()
	res, err := f.coord.Checkout(ctx, request(), f.sel, f.callbacks())
	if res.State != FailedBooking || !IsBookingError(err) {
		t.Fatalf("strict run = %v, %v", res.State, err)
	}
	if len(f.orders.orders) != 1 {
		t.Fatal("order should stay saved")
	}
	if len(f.failures) != 1 || f.successes != 0 {
		t.Fatalf("callbacks: success=%d failures=%v", f.successes, f.failures)
	}

	delete(f.tables.fail, "T3")
	f.tables.calls = nil
	if err := f.coord.RetryBooking(ctx, res); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !reflect.DeepEqual(f.tables.calls, []string{"T3"}) {
		t.Fatalf("retry attempted %v", f.tables.calls)
	}
	if res.State != Done || f.successes != 1 {
		t.Fatalf("after retry state=%v successes=%d", res.State, f.successes)
	}
	if err := f.coord.RetryBooking(ctx, res); err != nil || f.successes != 1 {
		t.Fatalf("retry on DONE should be a no-op: %v, successes=%d", err, f.successes)
	}
}

func TestQuote(t *testing.T) {
	f := newFixture(t, Options{})
	b, lines, err := f.coord.Quote(context.Background(), "u1", "c1", nil)
	if err != nil || len(lines) != 1 {
		t.Fatalf("quote = %v, %v", lines, err)
	}
	if !b.Base.Equal(decimal.NewFromInt(52000)) || !b.DownPayment.Equal(decimal.NewFromInt(26000)) {
		t.Fatalf("breakdown = %+v", b)
	}
}
