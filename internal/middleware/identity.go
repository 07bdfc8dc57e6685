package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
    s, _ := c.Get(CtxUserID).(string)
    return s
}

// Role returns the authenticated role, or "".
func Role(c echo.Context) string {
    s, _ := c.Get(CtxRole).(string)
    return s
}

// UserName returns the display name carried by the access token.
func UserName(c echo.Context) string {
    s, _ := c.Get(CtxUserName).(string)
    return s
}

// rateIdentity is the per-user part of rate limit keys.
func rateIdentity(c echo.Context) string {
    if id := UserID(c); id != "" {
        return id
    }
    return "anon"
}
