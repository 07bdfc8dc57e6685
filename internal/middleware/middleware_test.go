package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/config"
    "github.com/iliyamo/cafe-table-reservation/internal/utils"
)

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    h := JWTAuth("secret")(func(c echo.Context) error {
        return c.String(http.StatusOK, UserID(c)+"|"+Role(c)+"|"+UserName(c))
    })
    tok, err := utils.NewAccessToken("secret", utils.Subject{UserID: "u1", Role: "CUSTOMER", Name: "Ayu"}, 5)
    if err != nil {
        t.Fatal(err)
    }

    tests := []struct {
        name   string
        setup  func(r *http.Request)
        status int
        body   string
    }{
        {"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok.Token) }, http.StatusOK, "u1|CUSTOMER|Ayu"},
        {"missing", func(r *http.Request) {}, http.StatusUnauthorized, "missing bearer token"},
        {"bad", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "invalid token"},
        {"ws query", func(r *http.Request) {
            r.Header.Set("Upgrade", "websocket")
            q := r.URL.Query()
            q.Set("access_token", tok.Token)
            r.URL.RawQuery = q.Encode()
        }, http.StatusOK, "u1|CUSTOMER|Ayu"},
        {"query without upgrade", func(r *http.Request) {
            q := r.URL.Query()
            q.Set("access_token", tok.Token)
            r.URL.RawQuery = q.Encode()
        }, http.StatusUnauthorized, "missing bearer token"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/", nil)
            tt.setup(req)
            rec := httptest.NewRecorder()
            if err := h(e.NewContext(req, rec)); err != nil {
                t.Fatal(err)
            }
            if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.body) {
                t.Fatalf("got %d %s", rec.Code, rec.Body.String())
            }
        })
    }
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    h := RequireRole("CUSTOMER")(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
    for role, want := range map[string]int{"CUSTOMER": http.StatusNoContent, "OWNER": http.StatusForbidden, "": http.StatusForbidden} {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        if role != "" {
            c.Set(CtxRole, role)
        }
        _ = h(c)
        if rec.Code != want {
            t.Errorf("role %q: got %d want %d", role, rec.Code, want)
        }
    }
}

func TestPayloadCodec(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
    if err != nil {
        t.Fatal(err)
    }
    status, got, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"items":[]}` {
        t.Fatalf("decode: %v %d %v %s", ok, status, got, body)
    }
    if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0}); ok {
        t.Fatal("header length beyond payload must fail")
    }
}

func TestCacheKeyIncludesRouteParams(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
    key := func(id string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/cafes/"+id, nil), httptest.NewRecorder())
        c.SetPath("/v1/cafes/:id")
        c.SetParamNames("id")
        c.SetParamValues(id)
        return cacheKey(cfg, c)
    }
    if key("a") == key("b") {
        t.Fatal("different cafes share a cache key")
    }
    if !strings.HasPrefix(key("a"), "cache:") {
        t.Fatalf("prefix missing: %s", key("a"))
    }
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
    e := echo.New()
    called := 0
    next := func(c echo.Context) error { called++; return nil }
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    _ = NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil)(next)(c)
    _ = NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)(next)(c)
    if called != 2 {
        t.Fatalf("next called %d times", called)
    }
}
