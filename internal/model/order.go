package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OrderStatusActive is the status every order is created with.  Other
// values (e.g. "expired") are set by processes outside this service.
const OrderStatusActive = "active"

// OrderLine is one cart entry: a menu item and how many of it.
type OrderLine struct {
    MenuItemID string          `json:"menuItemId"`
    Name       string          `json:"name"`
    UnitPrice  decimal.Decimal `json:"unitPrice"`
    Quantity   int             `json:"quantity"`
    CafeID     string          `json:"cafeId"`
}

// LineTotal returns UnitPrice × Quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
    return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PaymentBreakdown is the derived price split for a checkout.  It is
// recomputed at confirmation time and copied into the Order for audit.
//
// Fields:
//  Subtotal        – sum of line totals for the cafe.
//  AppFee          – fixed service fee added to every order.
//  VoucherApplied  – whether the voucher threshold was met.
//  VoucherDiscount – amount the voucher actually removed.
//  Base            – subtotal + fee after the voucher.
//  DownPayment     – share of Base collected now.
//  GrandTotal      – remainder of Base settled later.
type PaymentBreakdown struct {
    Subtotal        decimal.Decimal `json:"subtotal"`
    AppFee          decimal.Decimal `json:"appFee"`
    VoucherApplied  bool            `json:"voucherApplied"`
    VoucherDiscount decimal.Decimal `json:"voucherDiscount"`
    Base            decimal.Decimal `json:"base"`
    DownPayment     decimal.Decimal `json:"downPayment"`
    GrandTotal      decimal.Decimal `json:"grandTotal"`
}

// Order is the history record written by checkout.
//
// Fields:
//  ID                – store-assigned identifier.
//  ReservationID     – reservation being paid for.
//  CafeID            – cafe of the reservation.
//  Items             – ordered lines, verbatim from the cart.
//  TotalPrice        – subtotal + fee after the voucher.
//  AppFeeAmount      – fee charged.
//  DownPaymentAmount – amount paid at checkout.
//  VoucherName       – voucher used, if any.
//  VoucherDiscount   – discount applied, if any.
//  PaymentMethod     – name of the chosen payment method.
//  UserID            – customer who paid.
//  Timestamp         – server-assigned creation time.
//  Status            – lifecycle status, initially "active".
type Order struct {
    ID                string           `json:"id"`
    ReservationID     string           `json:"reservationId"`
    CafeID            string           `json:"cafeId"`
    Items             []OrderLine      `json:"items"`
    TotalPrice        decimal.Decimal  `json:"totalPrice"`
    AppFeeAmount      decimal.Decimal  `json:"appFeeAmount"`
    DownPaymentAmount decimal.Decimal  `json:"downPaymentAmount"`
    VoucherName       *string          `json:"voucherName,omitempty"`
    VoucherDiscount   *decimal.Decimal `json:"voucherDiscount,omitempty"`
    PaymentMethod     string           `json:"paymentMethod"`
    UserID            string           `json:"userId"`
    Timestamp         time.Time        `json:"timestamp"`
    Status            string           `json:"status"`
}
