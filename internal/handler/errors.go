package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-table-reservation/internal/apperr"
    "github.com/iliyamo/cafe-table-reservation/internal/selection"
)

// respondError maps err onto the API's error shape.  action names what
// failed ("create reservation") and prefixes the 500 error string; the
// backend message is passed through untouched in "message".
func respondError(c echo.Context, action string, err error) error {
    var ve *apperr.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "field": ve.Field, "message": ve.Error()})
    case errors.Is(err, apperr.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, apperr.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, apperr.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    case errors.Is(err, selection.ErrSelectionLimit):
        return c.JSON(http.StatusConflict, echo.Map{"error": "selection limit reached", "message": err.Error()})
    case errors.Is(err, apperr.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": action + " failed", "message": apperr.Message(err)})
}

// notFoundAs rewrites a store's ErrNotFound into a validation error on
// field, for ids that arrive in a request body rather than the path.
func notFoundAs(field string, err error) error {
    if errors.Is(err, apperr.ErrNotFound) {
        return apperr.Invalid(field, "unknown id")
    }
    return err
}
