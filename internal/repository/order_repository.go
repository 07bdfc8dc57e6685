package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

const orderColumns = `id, reservation_id, cafe_id, items, total_price, app_fee_amount, down_payment_amount,
	voucher_name, voucher_discount, payment_method, user_id, status, created_at`

// CreateOrder appends one order to the history table in a single insert.
func (s *Store) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o.ID = uuid.NewString()
	o.Timestamp = s.now()
	if o.Status == "" {
		o.Status = model.OrderStatusActive
	}
	if o.Items == nil {
		o.Items = []model.OrderLine{}
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return model.Order{}, err
	}
	var (
		voucherName     sql.NullString
		voucherDiscount decimal.NullDecimal
	)
	if o.VoucherName != nil {
		voucherName = sql.NullString{String: *o.VoucherName, Valid: true}
	}
	if o.VoucherDiscount != nil {
		voucherDiscount = decimal.NullDecimal{Decimal: *o.VoucherDiscount, Valid: true}
	}
	const q = `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, o.ID, o.ReservationID, o.CafeID, items, o.TotalPrice, o.AppFeeAmount,
		o.DownPaymentAmount, voucherName, voucherDiscount, o.PaymentMethod, o.UserID, o.Status, o.Timestamp); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// ListOrdersByUser returns the user's order history, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Order
	for rows.Next() {
		var (
			o               model.Order
			items           []byte
			voucherName     sql.NullString
			voucherDiscount decimal.NullDecimal
		)
		if err := rows.Scan(&o.ID, &o.ReservationID, &o.CafeID, &items, &o.TotalPrice, &o.AppFeeAmount,
			&o.DownPaymentAmount, &voucherName, &voucherDiscount, &o.PaymentMethod, &o.UserID, &o.Status,
			&o.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
		if voucherName.Valid {
			name := voucherName.String
			o.VoucherName = &name
		}
		if voucherDiscount.Valid {
			d := voucherDiscount.Decimal
			o.VoucherDiscount = &d
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
