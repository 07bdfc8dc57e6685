// Package cart keeps each customer's order lines per cafe until checkout.
package cart

import (
	"context"
	"strings"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// Store is a per-user, per-cafe cart.
type Store interface {
	// Add merges line into the cart: the quantity of an existing line for
	// the same menu item is increased.
	Add(ctx context.Context, userID string, line model.OrderLine) error
	// SetQuantity replaces the quantity of a line; zero removes it.
	SetQuantity(ctx context.Context, userID, cafeID, menuItemID string, qty int) error
	Remove(ctx context.Context, userID, cafeID, menuItemID string) error
	// Lines returns the lines of one cafe in the order they were added.
	Lines(ctx context.Context, userID, cafeID string) ([]model.OrderLine, error)
	// ClearCafe drops every line of cafeID.
	ClearCafe(ctx context.Context, userID, cafeID string) error
}

func validateLine(userID string, l model.OrderLine) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return apperr.Required("userId")
	case strings.TrimSpace(l.CafeID) == "":
		return apperr.Required("cafeId")
	case strings.TrimSpace(l.MenuItemID) == "":
		return apperr.Required("menuItemId")
	case l.Quantity <= 0:
		return apperr.Invalid("quantity", "must be positive")
	case l.UnitPrice.IsNegative():
		return apperr.Invalid("unitPrice", "must not be negative")
	}
	return nil
}
