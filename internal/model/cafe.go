package model

import "github.com/shopspring/decimal"

// Cafe is a venue that customers browse, reserve tables in and order
// from.  It corresponds to a document in the `cafes` collection (or a
// row in the `cafes` table for the relational backend).
//
// Fields:
//  ID        – store-assigned identifier.
//  Name      – display name of the cafe.
//  Address   – street address shown on the detail screen.
//  OpenHours – free-form operating hours (e.g. "08:00 - 22:00").
//  Image     – optional URL or encoded image payload.
type Cafe struct {
    ID        string `json:"id"`
    Name      string `json:"name"`
    Address   string `json:"address"`
    OpenHours string `json:"openHours"`
    Image     string `json:"image,omitempty"`
}

// MenuItem is one orderable product of a cafe.
//
// Fields:
//  ID       – store-assigned identifier.
//  CafeID   – cafe offering the item.
//  Name     – display name.
//  Price    – unit price as a decimal amount.
//  Category – grouping used by the menu screen (e.g. "coffee").
//  Image    – optional URL or encoded image payload.
type MenuItem struct {
    ID       string          `json:"id"`
    CafeID   string          `json:"cafeId"`
    Name     string          `json:"name"`
    Price    decimal.Decimal `json:"price"`
    Category string          `json:"category"`
    Image    string          `json:"image,omitempty"`
}
