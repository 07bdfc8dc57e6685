// Package queue defines the domain events exchanged over the message
// broker and the broker drivers that carry them.
package queue

// Topics published by this service.
const (
    TopicBookingConfirmed = "booking.confirmed"
    TopicTablesChanged    = "tables.changed"
)

// BookingConfirmedEvent is published when a checkout reaches DONE. It
// carries enough detail for consumers to log or notify without querying
// the primary store.  Money amounts are decimal strings.
type BookingConfirmedEvent struct {
    OrderID       string   `json:"order_id"`
    ReservationID string   `json:"reservation_id"`
    UserID        string   `json:"user_id"`
    CafeID        string   `json:"cafe_id"`
    CafeName      string   `json:"cafe_name"`
    Date          string   `json:"date"`
    Time          string   `json:"time"`
    Guests        int      `json:"guests"`
    Tables        []string `json:"tables"`
    FailedTables  []string `json:"failed_tables,omitempty"`
    TotalPrice    string   `json:"total_price"`
    DownPayment   string   `json:"down_payment"`
    PaymentMethod string   `json:"payment_method"`
    ConfirmedAt   string   `json:"confirmed_at"`
}

// TablesChangedEvent is published after booking flags of a cafe changed.
// Watchers treat it as a signal to re-read the full table list.
type TablesChangedEvent struct {
    CafeID   string   `json:"cafe_id"`
    TableIDs []string `json:"table_ids"`
    At       string   `json:"at"`
}
