// Package pricing computes the payment split of a checkout.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// Defaults used when the configuration does not override them.
var (
	DefaultAppFee           = decimal.NewFromInt(2000)
	DefaultDownPaymentRatio = decimal.RequireFromString("0.5")
)

// Engine holds the fixed constants of the price calculation.
type Engine struct {
	AppFee           decimal.Decimal
	DownPaymentRatio decimal.Decimal
}

// NewEngine returns an Engine with the default fee and ratio.
func NewEngine() Engine {
	return Engine{AppFee: DefaultAppFee, DownPaymentRatio: DefaultDownPaymentRatio}
}

// Compute derives the payment breakdown for the lines of cafeID (every
// line when cafeID is empty). Lines with a non-positive quantity are
// ignored. The voucher, when given, applies only if subtotal plus fee
// reaches its minimum spend, and never drives the total below zero.
func (e Engine) Compute(cafeID string, lines []model.OrderLine, voucher *model.Voucher) model.PaymentBreakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if cafeID != "" && l.CafeID != cafeID {
			continue
		}
		subtotal = subtotal.Add(l.LineTotal())
	}

	base := subtotal.Add(e.AppFee)
	discount := decimal.Zero
	applied := false
	if voucher != nil && base.GreaterThanOrEqual(voucher.MinimumSpend) {
		applied = true
		after := decimal.Max(decimal.Zero, base.Sub(voucher.Discount))
		discount = base.Sub(after)
		base = after
	}

	down := base.Mul(e.DownPaymentRatio)
	return model.PaymentBreakdown{
		Subtotal:        subtotal,
		AppFee:          e.AppFee,
		VoucherApplied:  applied,
		VoucherDiscount: discount,
		Base:            base,
		DownPayment:     down,
		GrandTotal:      base.Sub(down),
	}
}
