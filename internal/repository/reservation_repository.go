package repository

import (
    "context"
    "encoding/json"

    "github.com/google/uuid"

    "github.com/iliyamo/cafe-table-reservation/internal/model"
)

const reservationColumns = `id, cafe_id, cafe_name, user_id, user_name, res_date, res_time,
    total_guests, selected_tables, created_at`

type rowScanner interface {
    Scan(dest ...any) error
}

// scanReservation decodes one reservations row; selected_tables is a
// JSON array column.
func scanReservation(row rowScanner) (model.Reservation, error) {
    var (
        r      model.Reservation
        tables []byte
    )
    if err := row.Scan(&r.ID, &r.CafeID, &r.CafeName, &r.UserID, &r.UserName, &r.Date, &r.Time,
        &r.TotalGuests, &tables, &r.CreatedAt); err != nil {
        return model.Reservation{}, err
    }
    if err := json.Unmarshal(tables, &r.SelectedTables); err != nil {
        return model.Reservation{}, err
    }
    return r, nil
}

// CreateReservation inserts one reservation row with a fresh uuid and
// creation time, and returns the stored record.
func (s *Store) CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error) {
    r.ID = uuid.NewString()
    r.CreatedAt = s.now()
    if r.SelectedTables == nil {
        r.SelectedTables = []string{}
    }
    tables, err := json.Marshal(r.SelectedTables)
    if err != nil {
        return model.Reservation{}, err
    }
    const q = `INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err := s.db.ExecContext(ctx, q, r.ID, r.CafeID, r.CafeName, r.UserID, r.UserName, r.Date, r.Time,
        r.TotalGuests, tables, r.CreatedAt); err != nil {
        return model.Reservation{}, err
    }
    return r, nil
}

// GetReservation returns one reservation or apperr.ErrNotFound.
func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
    row := s.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? LIMIT 1`, id)
    r, err := scanReservation(row)
    return r, notFound(err)
}

// ListReservationsByUser returns the user's reservations, newest first.
func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        r, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, r)
    }
    return out, rows.Err()
}
