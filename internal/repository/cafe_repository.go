package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// ListCafes returns every cafe ordered by name.
func (s *Store) ListCafes(ctx context.Context) ([]model.Cafe, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, address, open_hours, image FROM cafes ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Cafe
	for rows.Next() {
		var c model.Cafe
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.OpenHours, &c.Image); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCafe returns one cafe or apperr.ErrNotFound.
func (s *Store) GetCafe(ctx context.Context, id string) (model.Cafe, error) {
	var c model.Cafe
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, address, open_hours, image FROM cafes WHERE id = ? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Address, &c.OpenHours, &c.Image)
	return c, notFound(err)
}

// ListMenu returns the menu of a cafe ordered by category then name.
func (s *Store) ListMenu(ctx context.Context, cafeID string) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, cafe_id, name, price, category, image FROM menu_items WHERE cafe_id = ? ORDER BY category, name",
		cafeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.CafeID, &m.Name, &m.Price, &m.Category, &m.Image); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMenuItem returns one item of a cafe's menu.
func (s *Store) GetMenuItem(ctx context.Context, cafeID, itemID string) (model.MenuItem, error) {
	var m model.MenuItem
	err := s.db.QueryRowContext(ctx,
		"SELECT id, cafe_id, name, price, category, image FROM menu_items WHERE cafe_id = ? AND id = ? LIMIT 1",
		cafeID, itemID).Scan(&m.ID, &m.CafeID, &m.Name, &m.Price, &m.Category, &m.Image)
	return m, notFound(err)
}

// ListVouchers returns every voucher.
func (s *Store) ListVouchers(ctx context.Context) ([]model.Voucher, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, discount, minimum_spend FROM vouchers ORDER BY minimum_spend, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Voucher
	for rows.Next() {
		var v model.Voucher
		if err := rows.Scan(&v.ID, &v.Name, &v.Discount, &v.MinimumSpend); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVoucher returns one voucher.
func (s *Store) GetVoucher(ctx context.Context, id string) (model.Voucher, error) {
	var v model.Voucher
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, discount, minimum_spend FROM vouchers WHERE id = ? LIMIT 1", id).
		Scan(&v.ID, &v.Name, &v.Discount, &v.MinimumSpend)
	return v, notFound(err)
}

// ListPaymentMethods returns every payment method.
func (s *Store) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, image FROM payment_methods ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PaymentMethod
	for rows.Next() {
		var p model.PaymentMethod
		if err := rows.Scan(&p.ID, &p.Name, &p.Image); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPaymentMethod returns one payment method.
func (s *Store) GetPaymentMethod(ctx context.Context, id string) (model.PaymentMethod, error) {
	var p model.PaymentMethod
	err := s.db.QueryRowContext(ctx, "SELECT id, name, image FROM payment_methods WHERE id = ? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.Image)
	return p, notFound(err)
}

// Seed upserts the catalogue in one transaction. Table rows keep their
// booked flag; only their layout position is refreshed.
func (s *Store) Seed(ctx context.Context, data store.SeedData) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range data.Cafes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cafes (id, name, address, open_hours, image) VALUES (?, ?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE name = VALUES(name), address = VALUES(address),
					open_hours = VALUES(open_hours), image = VALUES(image)`,
				c.ID, c.Name, c.Address, c.OpenHours, c.Image); err != nil {
				return fmt.Errorf("seed cafe %s: %w", c.ID, err)
			}
		}
		pos := make(map[string]int)
		for _, t := range data.Tables {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cafe_tables (cafe_id, table_id, booked, position) VALUES (?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE position = VALUES(position)`,
				t.CafeID, t.ID, t.Booked, pos[t.CafeID]); err != nil {
				return fmt.Errorf("seed table %s/%s: %w", t.CafeID, t.ID, err)
			}
			pos[t.CafeID]++
		}
		for _, m := range data.Menu {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO menu_items (id, cafe_id, name, price, category, image) VALUES (?, ?, ?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE cafe_id = VALUES(cafe_id), name = VALUES(name), price = VALUES(price),
					category = VALUES(category), image = VALUES(image)`,
				m.ID, m.CafeID, m.Name, m.Price, m.Category, m.Image); err != nil {
				return fmt.Errorf("seed menu item %s: %w", m.ID, err)
			}
		}
		for _, v := range data.Vouchers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO vouchers (id, name, discount, minimum_spend) VALUES (?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE name = VALUES(name), discount = VALUES(discount),
					minimum_spend = VALUES(minimum_spend)`,
				v.ID, v.Name, v.Discount, v.MinimumSpend); err != nil {
				return fmt.Errorf("seed voucher %s: %w", v.ID, err)
			}
		}
		for _, p := range data.PaymentMethods {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO payment_methods (id, name, image) VALUES (?, ?, ?)
				ON DUPLICATE KEY UPDATE name = VALUES(name), image = VALUES(image)`,
				p.ID, p.Name, p.Image); err != nil {
				return fmt.Errorf("seed payment method %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
