// Package memory is an in-process storage backend. It implements every
// store contract plus a native push-based TableWatcher, and is used for
// local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

type refreshEntry struct {
	userID  string
	exp     time.Time
	revoked bool
}

// Store keeps every collection in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	cafes     map[string]model.Cafe
	cafeOrder []string
	tables    map[string][]model.Table // cafeID -> tables in insertion order
	menu      map[string][]model.MenuItem
	vouchers  []model.Voucher
	payments  []model.PaymentMethod

	reservations map[string]model.Reservation
	orders       []model.Order
	users        map[string]model.User
	emails       map[string]string
	tokens       map[string]refreshEntry

	watchers map[string]map[chan struct{}]struct{}

	now func() time.Time
}

var (
	_ store.Backend      = (*Store)(nil)
	_ store.TableWatcher = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		cafes:        make(map[string]model.Cafe),
		tables:       make(map[string][]model.Table),
		menu:         make(map[string][]model.MenuItem),
		reservations: make(map[string]model.Reservation),
		users:        make(map[string]model.User),
		emails:       make(map[string]string),
		tokens:       make(map[string]refreshEntry),
		watchers:     make(map[string]map[chan struct{}]struct{}),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close(context.Context) error { return nil }

// ----- catalogue -----

func (s *Store) ListCafes(ctx context.Context) ([]model.Cafe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Cafe, 0, len(s.cafeOrder))
	for _, id := range s.cafeOrder {
		out = append(out, s.cafes[id])
	}
	return out, nil
}

func (s *Store) GetCafe(ctx context.Context, id string) (model.Cafe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cafes[id]
	if !ok {
		return model.Cafe{}, apperr.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListMenu(ctx context.Context, cafeID string) ([]model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MenuItem(nil), s.menu[cafeID]...), nil
}

func (s *Store) GetMenuItem(ctx context.Context, cafeID, itemID string) (model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.menu[cafeID] {
		if m.ID == itemID {
			return m, nil
		}
	}
	return model.MenuItem{}, apperr.ErrNotFound
}

func (s *Store) ListVouchers(ctx context.Context) ([]model.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Voucher(nil), s.vouchers...), nil
}

func (s *Store) GetVoucher(ctx context.Context, id string) (model.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vouchers {
		if v.ID == id {
			return v, nil
		}
	}
	return model.Voucher{}, apperr.ErrNotFound
}

func (s *Store) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.PaymentMethod(nil), s.payments...), nil
}

func (s *Store) GetPaymentMethod(ctx context.Context, id string) (model.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return model.PaymentMethod{}, apperr.ErrNotFound
}

// ----- tables -----

func (s *Store) ListTables(ctx context.Context, cafeID string) ([]model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Table(nil), s.tables[cafeID]...), nil
}

func (s *Store) SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	ts := s.tables[cafeID]
	idx := -1
	for i := range ts {
		if ts[i].ID == tableID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	changed := ts[idx].Booked != booked
	ts[idx].Booked = booked
	s.mu.Unlock()
	if changed {
		s.notify(cafeID)
	}
	return nil
}

// WatchTables pushes the cafe's table list now and after every change.
// Bursts of changes collapse into one push of the newest list.
func (s *Store) WatchTables(ctx context.Context, cafeID string, fn func([]model.Table)) error {
	sig := make(chan struct{}, 1)
	s.mu.Lock()
	if s.watchers[cafeID] == nil {
		s.watchers[cafeID] = make(map[chan struct{}]struct{})
	}
	s.watchers[cafeID][sig] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.watchers[cafeID], sig)
		if len(s.watchers[cafeID]) == 0 {
			delete(s.watchers, cafeID)
		}
		s.mu.Unlock()
	}()

	tables, _ := s.ListTables(ctx, cafeID)
	fn(tables)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sig:
			tables, _ := s.ListTables(ctx, cafeID)
			fn(tables)
		}
	}
}

func (s *Store) notify(cafeID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.watchers[cafeID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ----- reservations & orders -----

func (s *Store) CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.SelectedTables = append([]string(nil), r.SelectedTables...)
	s.mu.Lock()
	s.reservations[r.ID] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, apperr.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	o.ID = uuid.NewString()
	o.Timestamp = s.now()
	o.Items = append([]model.OrderLine(nil), o.Items...)
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	return o, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

// ----- identity -----

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[email]; ok {
		return model.User{}, apperr.ErrEmailExists
	}
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, apperr.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	s.tokens[tokenHash] = refreshEntry{userID: userID, exp: exp}
	s.mu.Unlock()
	return nil
}

func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tokens[tokenHash]
	if !ok || e.revoked || s.now().After(e.exp) {
		return "", apperr.ErrNotFound
	}
	return e.userID, nil
}

func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tokens[tokenHash]; ok {
		e.revoked = true
		s.tokens[tokenHash] = e
	}
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, e := range s.tokens {
		if e.userID == userID {
			e.revoked = true
			s.tokens[h] = e
		}
	}
	return nil
}

// ----- seeding -----

// Seed upserts catalogue documents. A table that already exists keeps its
// booked flag.
func (s *Store) Seed(ctx context.Context, data store.SeedData) error {
	changed := map[string]bool{}
	s.mu.Lock()
	for _, c := range data.Cafes {
		if _, ok := s.cafes[c.ID]; !ok {
			s.cafeOrder = append(s.cafeOrder, c.ID)
		}
		s.cafes[c.ID] = c
	}
	for _, t := range data.Tables {
		ts := s.tables[t.CafeID]
		found := false
		for i := range ts {
			if ts[i].ID == t.ID {
				found = true
				break
			}
		}
		if !found {
			s.tables[t.CafeID] = append(ts, t)
			changed[t.CafeID] = true
		}
	}
	for _, m := range data.Menu {
		items := s.menu[m.CafeID]
		replaced := false
		for i := range items {
			if items[i].ID == m.ID {
				items[i] = m
				replaced = true
			}
		}
		if !replaced {
			items = append(items, m)
		}
		s.menu[m.CafeID] = items
	}
	for _, v := range data.Vouchers {
		s.vouchers = upsertByID(s.vouchers, v, func(x model.Voucher) string { return x.ID })
	}
	for _, p := range data.PaymentMethods {
		s.payments = upsertByID(s.payments, p, func(x model.PaymentMethod) string { return x.ID })
	}
	s.mu.Unlock()
	for id := range changed {
		s.notify(id)
	}
	return nil
}

func upsertByID[T any](list []T, v T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
