package model

// Table is a bookable seat unit inside a cafe.  Tables are created out of
// band by seed data and only ever mutated by the checkout booking step,
// which flips Booked to true.  Identifiers carry a numeric suffix used
// for display ordering (e.g. "T1", "T10").  Layout markers such as
// "KASIR" live in the same collection but are not bookable.
//
// Fields:
//  CafeID – cafe owning the table.
//  ID     – table identifier, unique per cafe.
//  Booked – whether the table has been booked.
type Table struct {
    CafeID string `json:"cafeId"`
    ID     string `json:"id"`
    Booked bool   `json:"booked"`
}
