package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose role (set by JWTAuth) is not one of
// roles with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
