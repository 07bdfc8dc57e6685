package repository

import (
	"context"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// ListTables returns the cafe's tables in layout order, markers included.
func (s *Store) ListTables(ctx context.Context, cafeID string) ([]model.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cafe_id, table_id, booked FROM cafe_tables WHERE cafe_id = ? ORDER BY position, table_id",
		cafeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.CafeID, &t.ID, &t.Booked); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetTableBooked sets one table's booked flag unconditionally.
func (s *Store) SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cafe_tables SET booked = ? WHERE cafe_id = ? AND table_id = ?",
		booked, cafeID, tableID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	// zero affected rows also means "already in that state"
	var one int
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM cafe_tables WHERE cafe_id = ? AND table_id = ? LIMIT 1", cafeID, tableID).Scan(&one)
	return notFound(err)
}
