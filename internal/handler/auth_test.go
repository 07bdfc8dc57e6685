package handler

import (
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/model"
)

func TestRegisterLoginRefresh(t *testing.T) {
    env := newEnv(t, envOptions{})

    rec := env.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": " Rina@Example.com ", "password": "rahasia"})
    expectStatus(t, rec, http.StatusCreated)
    reg := decode[authResp](t, rec)
    if reg.User.Email != "rina@example.com" || reg.User.DisplayName != "rina" || reg.User.Role != model.RoleCustomer {
        t.Fatalf("user = %+v", reg.User)
    }

    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "rina@example.com", "password": "x"}), http.StatusConflict)
    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "rina@example.com", "password": "salah"}), http.StatusUnauthorized)

    rec = env.do(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "rina@example.com", "password": "rahasia"})
    expectStatus(t, rec, http.StatusOK)
    login := decode[authResp](t, rec)

    rec = env.do(t, http.MethodGet, "/v1/me", login.Access.Token, nil)
    expectStatus(t, rec, http.StatusOK)
    if me := decode[model.User](t, rec); me.ID != reg.User.ID {
        t.Fatalf("me = %+v", me)
    }

    rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": login.Refresh.Token})
    expectStatus(t, rec, http.StatusOK)
    rotated := decode[authResp](t, rec)
    // the old refresh token is revoked by rotation
    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": login.Refresh.Token}), http.StatusUnauthorized)

    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/refresh-access", "", echo.Map{"refresh_token": rotated.Refresh.Token}), http.StatusOK)
    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/logout", "", echo.Map{"refresh_token": rotated.Refresh.Token}), http.StatusNoContent)
    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/refresh-access", "", echo.Map{"refresh_token": rotated.Refresh.Token}), http.StatusUnauthorized)
}

func TestLogoutWithBearerRevokesAll(t *testing.T) {
    env := newEnv(t, envOptions{})
    rec := env.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "budi@example.com", "password": "pw", "displayName": "Budi"})
    expectStatus(t, rec, http.StatusCreated)
    reg := decode[authResp](t, rec)

    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/logout", reg.Access.Token, nil), http.StatusNoContent)
    expectStatus(t, env.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": reg.Refresh.Token}), http.StatusUnauthorized)
}
