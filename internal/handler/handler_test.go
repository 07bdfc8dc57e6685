package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/cafe-table-reservation/internal/availability"
    "github.com/iliyamo/cafe-table-reservation/internal/cart"
    "github.com/iliyamo/cafe-table-reservation/internal/checkout"
    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/model"
    "github.com/iliyamo/cafe-table-reservation/internal/pricing"
    "github.com/iliyamo/cafe-table-reservation/internal/reservation"
    "github.com/iliyamo/cafe-table-reservation/internal/session"
    "github.com/iliyamo/cafe-table-reservation/internal/store"
    "github.com/iliyamo/cafe-table-reservation/internal/store/memory"
    "github.com/iliyamo/cafe-table-reservation/internal/utils"
)

const testSecret = "test-secret"

type envOptions struct {
    wrapTables func(store.TableStore) store.TableStore // wraps the booking target
    orders     store.OrderStore                         // overrides the order target
    strict  bool
    retries int
}

type testEnv struct {
    e        *echo.Echo
    mem      *memory.Store
    sessions *session.Manager
}

func seedCatalogue(t *testing.T, mem *memory.Store) {
    t.Helper()
    err := mem.Seed(context.Background(), store.SeedData{
        Cafes: []model.Cafe{
            {ID: "c1", Name: "Kopi Satu", Address: "Jl. Merdeka 1"},
            {ID: "c2", Name: "Teras Dua", Address: "Jl. Asia Afrika 2"},
        },
        Tables: []model.Table{
            {CafeID: "c1", ID: "T10"}, {CafeID: "c1", ID: "T2", Booked: true}, {CafeID: "c1", ID: "T1"}, {CafeID: "c1", ID: "KASIR"},
            {CafeID: "c2", ID: "A1"},
        },
        Menu: []model.MenuItem{
            {ID: "m1", CafeID: "c1", Name: "Es Kopi Susu", Price: decimal.NewFromInt(25000), Category: "coffee"},
            {ID: "m2", CafeID: "c1", Name: "Roti Bakar", Price: decimal.NewFromInt(18000), Category: "food"},
        },
        Vouchers:       []model.Voucher{{ID: "v1", Name: "HEMAT10", Discount: decimal.NewFromInt(10000), MinimumSpend: decimal.NewFromInt(30000)}},
        PaymentMethods: []model.PaymentMethod{{ID: "pm1", Name: "GoPay"}},
    })
    if err != nil {
        t.Fatal(err)
    }
}

func newEnv(t *testing.T, o envOptions) *testEnv {
    t.Helper()
    mem := memory.New()
    seedCatalogue(t, mem)

    feed := availability.NewFeed(mem)
    sessions := session.NewManager(feed, session.Options{}, nil)
    t.Cleanup(sessions.Close)

    var tables store.TableStore = mem
    if o.wrapTables != nil {
        tables = o.wrapTables(mem)
    }
    orders := o.orders
    if orders == nil {
        orders = mem
    }
    carts := cart.NewMemory()
    cc := checkout.NewCoordinator(checkout.Deps{Orders: orders, Tables: tables, Cart: carts, Pricing: pricing.NewEngine()}, checkout.Options{StrictBooking: o.strict})
    rc := reservation.NewCoordinator(mem, nil)

    e := echo.New()
    a := NewAuthHandler(AuthSettings{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}, mem, mem)
    e.POST("/v1/auth/register", a.Register)
    e.POST("/v1/auth/login", a.Login)
    e.POST("/v1/auth/refresh", a.Refresh)
    e.POST("/v1/auth/refresh-access", a.RefreshAccess)
    e.POST("/v1/auth/logout", a.Logout)
    e.GET("/v1/me", a.Me, middleware.JWTAuth(testSecret))

    p := NewPublicHandler(mem, feed.Filter())
    e.GET("/v1/cafes", p.GetCafes)
    e.GET("/v1/cafes/:id", p.GetCafe)
    e.GET("/v1/cafes/:id/menu", p.GetMenu)
    e.GET("/v1/cafes/:id/tables", p.GetTables)
    e.GET("/v1/vouchers", p.GetVouchers)
    e.GET("/v1/cafes/:id/tables/ws", NewTableFeedHandler(feed, mem, nil).Stream)

    h := NewCustomerHandler(mem, sessions, rc, cc, carts, nil)
    h.BookingRetries = o.retries
    g := e.Group("/v1", middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleCustomer))
    g.POST("/cafes/:id/session", h.EnterCafe)
    g.GET("/session", h.GetSession)
    g.DELETE("/session", h.LeaveCafe)
    g.POST("/session/tables/:table", h.ToggleTable)
    g.DELETE("/session/tables", h.ClearSelection)
    g.POST("/reservations", h.CreateReservation)
    g.GET("/my-reservations", h.ListMyReservations)
    g.GET("/reservations/:id", h.GetReservation)
    g.GET("/cart", h.GetCart)
    g.POST("/cart/items", h.AddCartItem)
    g.PATCH("/cart/items/:item", h.UpdateCartItem)
    g.DELETE("/cart/items/:item", h.RemoveCartItem)
    g.DELETE("/cart", h.ClearCart)
    g.POST("/reservations/:id/quote", h.Quote)
    g.POST("/reservations/:id/checkout", h.Checkout)
    g.GET("/history", h.History)

    return &testEnv{e: e, mem: mem, sessions: sessions}
}

func token(t *testing.T, userID, name string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, utils.Subject{UserID: userID, Role: model.RoleCustomer, Name: name}, 5)
    if err != nil {
        t.Fatal(err)
    }
    return tok.Token
}

func (env *testEnv) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
    t.Helper()
    var buf bytes.Buffer
    if body != nil {
        if err := json.NewEncoder(&buf).Encode(body); err != nil {
            t.Fatal(err)
        }
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if tok != "" {
        req.Header.Set("Authorization", "Bearer "+tok)
    }
    rec := httptest.NewRecorder()
    env.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
    t.Helper()
    if rec.Code != want {
        t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
    }
}

// reserve enters c1, selects T1 and T10 and reserves them for userID.
func (env *testEnv) reserve(t *testing.T, tok string) model.Reservation {
    t.Helper()
    expectStatus(t, env.do(t, http.MethodPost, "/v1/cafes/c1/session", tok, nil), http.StatusOK)
    for _, id := range []string{"T10", "T1"} {
        rec := env.do(t, http.MethodPost, "/v1/session/tables/"+id, tok, nil)
        expectStatus(t, rec, http.StatusOK)
        if got := decode[map[string]any](t, rec)["result"]; got != "selected" {
            t.Fatalf("toggle %s = %v", id, got)
        }
    }
    rec := env.do(t, http.MethodPost, "/v1/reservations", tok, echo.Map{"date": "2024-05-01", "time": "19:30", "totalGuests": 4})
    expectStatus(t, rec, http.StatusCreated)
    return decode[model.Reservation](t, rec)
}

// addToCart puts qty of a menu item into the cart of the active cafe.
func (env *testEnv) addToCart(t *testing.T, tok, itemID string, qty int) {
    t.Helper()
    rec := env.do(t, http.MethodPost, "/v1/cart/items", tok, echo.Map{"menuItemId": itemID, "quantity": qty})
    expectStatus(t, rec, http.StatusCreated)
}

type failingTables struct {
    store.TableStore
    fail string
}

func (f failingTables) SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error {
    if tableID == f.fail {
        return errors.New("write quota exceeded")
    }
    return f.TableStore.SetTableBooked(ctx, cafeID, tableID, booked)
}

type failingOrders struct{ store.OrderStore }

func (failingOrders) CreateOrder(context.Context, model.Order) (model.Order, error) {
    return model.Order{}, errors.New("PERMISSION_DENIED: missing or insufficient permissions")
}
