package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(cafe, price string, qty int) model.OrderLine {
	return model.OrderLine{MenuItemID: "m-" + price, CafeID: cafe, UnitPrice: d(price), Quantity: qty}
}

func TestCompute(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		name     string
		cafe     string
		lines    []model.OrderLine
		voucher  *model.Voucher
		base     string
		discount string
		down     string
		grand    string
		applied  bool
		subtotal string
	}{
		{
			name:     "voucher threshold met",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "25000", 2)},
			voucher:  &model.Voucher{Name: "HEMAT", Discount: d("10000"), MinimumSpend: d("50000")},
			subtotal: "50000", base: "42000", discount: "10000", down: "21000", grand: "21000", applied: true,
		},
		{
			name:     "no voucher",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "15000", 1)},
			subtotal: "15000", base: "17000", discount: "0", down: "8500", grand: "8500",
		},
		{
			name:     "voucher below minimum spend",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "15000", 1)},
			voucher:  &model.Voucher{Discount: d("10000"), MinimumSpend: d("50000")},
			subtotal: "15000", base: "17000", discount: "0", down: "8500", grand: "8500",
		},
		{
			name:     "threshold is inclusive",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "48000", 1)},
			voucher:  &model.Voucher{Discount: d("5000"), MinimumSpend: d("50000")},
			subtotal: "48000", base: "45000", discount: "5000", down: "22500", grand: "22500", applied: true,
		},
		{
			name:     "discount clamps at zero",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "1000", 1)},
			voucher:  &model.Voucher{Discount: d("10000"), MinimumSpend: d("0")},
			subtotal: "1000", base: "0", discount: "3000", down: "0", grand: "0", applied: true,
		},
		{
			name:     "zero lines with fee clearing the threshold",
			cafe:     "c1",
			voucher:  &model.Voucher{Discount: d("500"), MinimumSpend: d("1500")},
			subtotal: "0", base: "1500", discount: "500", down: "750", grand: "750", applied: true,
		},
		{
			name:     "other cafes and empty quantities ignored",
			cafe:     "c1",
			lines:    []model.OrderLine{line("c1", "10000", 1), line("c2", "99000", 3), line("c1", "5000", 0)},
			subtotal: "10000", base: "12000", discount: "0", down: "6000", grand: "6000",
		},
		{
			name:     "fractional amounts keep precision",
			cafe:     "",
			lines:    []model.OrderLine{line("c1", "0.1", 3), line("c2", "0.2", 1)},
			subtotal: "0.5", base: "2000.5", discount: "0", down: "1000.25", grand: "1000.25",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Compute(tc.cafe, tc.lines, tc.voucher)
			check := func(field string, have decimal.Decimal, want string) {
				if !have.Equal(d(want)) {
					t.Fatalf("%s = %s, want %s", field, have, want)
				}
			}
			check("subtotal", got.Subtotal, tc.subtotal)
			check("base", got.Base, tc.base)
			check("voucherDiscount", got.VoucherDiscount, tc.discount)
			check("downPayment", got.DownPayment, tc.down)
			check("grandTotal", got.GrandTotal, tc.grand)
			check("appFee", got.AppFee, "2000")
			if got.VoucherApplied != tc.applied {
				t.Fatalf("voucherApplied = %v, want %v", got.VoucherApplied, tc.applied)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	e := Engine{AppFee: d("2500"), DownPaymentRatio: d("0.3")}
	lines := []model.OrderLine{line("c1", "12345.67", 3), line("c1", "0.01", 7)}
	v := &model.Voucher{Discount: d("1000"), MinimumSpend: d("10000")}
	first := e.Compute("c1", lines, v)
	for i := 0; i < 50; i++ {
		got := e.Compute("c1", lines, v)
		if !got.GrandTotal.Equal(first.GrandTotal) || !got.DownPayment.Equal(first.DownPayment) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	if !first.DownPayment.Add(first.GrandTotal).Equal(first.Base) {
		t.Fatalf("split does not add up: %+v", first)
	}
}
