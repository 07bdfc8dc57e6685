package middleware // reusable HTTP middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID   = "user_id"
    CtxRole     = "role"
    CtxUserName = "user_name"
)

// JWTAuth validates a Bearer access token and stores the subject, role and
// display name in the echo context under CtxUserID, CtxRole and
// CtxUserName.  Browsers cannot set headers on websocket upgrades, so an
// access_token query parameter is accepted for upgrade requests only.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxUserID, claims.Subject)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxUserName, claims.Name)
            return next(c)
        }
    }
}

func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
        return raw, raw != ""
    }
    if strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket") {
        if raw := c.QueryParam("access_token"); raw != "" {
            return raw, true
        }
    }
    return "", false
}
