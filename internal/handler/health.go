package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness check for load balancers.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Readiness reports 503 until every check passes.  Checks are keyed by
// dependency name (e.g. "store", "redis").
func Readiness(checks map[string]func(context.Context) error) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        status := http.StatusOK
        out := make(map[string]string, len(checks))
        for name, check := range checks {
            if err := check(ctx); err != nil {
                status = http.StatusServiceUnavailable
                out[name] = err.Error()
                continue
            }
            out[name] = "ok"
        }
        return c.JSON(status, echo.Map{"checks": out})
    }
}
