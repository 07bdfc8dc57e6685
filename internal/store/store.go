// Package store declares the narrow persistence contracts the coordinators
// and handlers depend on. Three backends implement them: an in-process
// memory store, MySQL (internal/repository) and MongoDB (internal/docstore).
package store

import (
	"context"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// CafeStore reads cafe documents.
type CafeStore interface {
	ListCafes(ctx context.Context) ([]model.Cafe, error)
	GetCafe(ctx context.Context, id string) (model.Cafe, error)
}

// MenuStore reads the menu of a cafe.
type MenuStore interface {
	ListMenu(ctx context.Context, cafeID string) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, cafeID, itemID string) (model.MenuItem, error)
}

// TableStore reads and updates the table collection of a cafe.
type TableStore interface {
	ListTables(ctx context.Context, cafeID string) ([]model.Table, error)
	SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error
}

// TableWatcher pushes full table lists for one cafe. WatchTables calls fn
// with the current list and again after every change, in arrival order.
// It blocks until ctx is done (returning ctx.Err()) or the underlying
// subscription fails (returning that error).
type TableWatcher interface {
	WatchTables(ctx context.Context, cafeID string, fn func([]model.Table)) error
}

// ReservationStore appends and reads reservations. CreateReservation
// assigns ID and CreatedAt and returns the stored record.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

// OrderStore persists order history. CreateOrder is a single atomic
// create that assigns ID and Timestamp.
type OrderStore interface {
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

// VoucherStore reads vouchers.
type VoucherStore interface {
	ListVouchers(ctx context.Context) ([]model.Voucher, error)
	GetVoucher(ctx context.Context, id string) (model.Voucher, error)
}

// PaymentMethodStore reads payment methods.
type PaymentMethodStore interface {
	ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)
	GetPaymentMethod(ctx context.Context, id string) (model.PaymentMethod, error)
}

// UserStore persists accounts. CreateUser returns apperr.ErrEmailExists
// for a duplicate email.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore persists hashed refresh tokens. ValidateRefresh returns the
// owning user id, or apperr.ErrNotFound for an unknown, revoked or
// expired token.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// SeedData is the catalogue loaded by Seeder.
type SeedData struct {
	Cafes          []model.Cafe
	Tables         []model.Table
	Menu           []model.MenuItem
	Vouchers       []model.Voucher
	PaymentMethods []model.PaymentMethod
}

// Seeder upserts catalogue documents keyed by their ids. Existing
// table booking flags are left untouched.
type Seeder interface {
	Seed(ctx context.Context, data SeedData) error
}

// Backend is the set of contracts every storage driver provides. Drivers
// with a native change feed additionally implement TableWatcher.
type Backend interface {
	CafeStore
	MenuStore
	TableStore
	ReservationStore
	OrderStore
	VoucherStore
	PaymentMethodStore
	UserStore
	TokenStore
	Seeder
	Close(ctx context.Context) error
}
