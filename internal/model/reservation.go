package model

import "time"

// Reservation binds a user, a party size, a date/time and the tables the
// user picked.  It is created once by the reservation coordinator and is
// immutable afterwards; an Order later references it by ID.
//
// Fields:
//  ID             – store-assigned opaque identifier (join key for checkout).
//  CafeID         – cafe the tables belong to.
//  CafeName       – cafe name captured at creation time.
//  UserID         – identity of the customer who reserved.
//  UserName       – display name given for the reservation.
//  Date           – reservation date as entered (e.g. "2024-05-01").
//  Time           – reservation time as entered (e.g. "19:30").
//  TotalGuests    – party size, always positive.
//  SelectedTables – table identifiers, sorted by numeric suffix.
//  CreatedAt      – server-assigned creation timestamp.
type Reservation struct {
    ID             string    `json:"id"`
    CafeID         string    `json:"cafeId"`
    CafeName       string    `json:"cafeName"`
    UserID         string    `json:"userId"`
    UserName       string    `json:"userName"`
    Date           string    `json:"date"`
    Time           string    `json:"time"`
    TotalGuests    int       `json:"totalGuests"`
    SelectedTables []string  `json:"selectedTables"`
    CreatedAt      time.Time `json:"createdAt"`
}
