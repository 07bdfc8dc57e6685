package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/apperr"
    "github.com/iliyamo/cafe-table-reservation/internal/middleware"
    "github.com/iliyamo/cafe-table-reservation/internal/model"
    "github.com/iliyamo/cafe-table-reservation/internal/store"
    "github.com/iliyamo/cafe-table-reservation/internal/utils"
)

// AuthSettings are the token and hashing parameters of AuthHandler.
type AuthSettings struct {
    JWTSecret      string
    AccessTTLMin   int
    RefreshTTLDays int
    BcryptCost     int
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    AuthSettings
    Users  store.UserStore
    Tokens store.TokenStore
}

func NewAuthHandler(cfg AuthSettings, u store.UserStore, t store.TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email       string `json:"email"`
    Password    string `json:"password"`
    DisplayName string `json:"displayName"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    model.User `json:"user"`
    Access  tokenPart  `json:"access"`
    Refresh tokenPart  `json:"refresh"`
}

// Register creates a customer account and returns tokens immediately.
// Without a display name the local part of the email is used.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    name := strings.TrimSpace(req.DisplayName)
    if name == "" {
        name, _, _ = strings.Cut(req.Email, "@")
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password not accepted"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.CreateUser(ctx, model.User{Email: req.Email, DisplayName: name, PasswordHash: hash, Role: model.RoleCustomer})
    if err != nil {
        return respondError(c, "create user", err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, "issue tokens", err)
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetUserByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, apperr.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return respondError(c, "query", err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, "issue tokens", err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return respondError(c, "revoke refresh", err)
    }
    u, err := h.Users.GetUserByID(ctx, userID)
    if err != nil {
        if errors.Is(err, apperr.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, "load user", err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, "issue tokens", err)
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess issues a new access token for a valid refresh token
// without rotating it.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetUserByID(ctx, userID)
    if err != nil {
        if errors.Is(err, apperr.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, "load user", err)
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Subject{UserID: u.ID, Role: u.Role, Name: u.DisplayName, Email: u.Email}, h.Cfg.AccessTTLMin)
    if err != nil {
        return respondError(c, "issue tokens", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer's user when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return respondError(c, "logout", err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
    }
    claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, claims.Subject); err != nil {
        return respondError(c, "logout", err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := h.Users.GetUserByID(ctx, middleware.UserID(c))
    if err != nil {
        return respondError(c, "load user", err)
    }
    return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Subject{UserID: u.ID, Role: u.Role, Name: u.DisplayName, Email: u.Email}, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}
