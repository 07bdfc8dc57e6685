package model

import "github.com/shopspring/decimal"

// Voucher is a fixed nominal discount that applies once the order total
// (subtotal plus app fee) reaches MinimumSpend.
type Voucher struct {
    ID           string          `json:"id"`
    Name         string          `json:"name"`
    Discount     decimal.Decimal `json:"discount"`
    MinimumSpend decimal.Decimal `json:"minimumSpend"`
}

// PaymentMethod is a selectable way to pay the down payment.
type PaymentMethod struct {
    ID    string `json:"id"`
    Name  string `json:"name"`
    Image string `json:"image,omitempty"`
}
