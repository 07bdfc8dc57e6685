package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/cafe-table-reservation/internal/logging"
)

// BookingLogGroup is the consumer group of the booking log writer.
const BookingLogGroup = "booking-log"

// BookingLog appends one line per confirmed booking to a log file.
type BookingLog struct {
    Path       string
    MaxBackoff time.Duration
    Log        *slog.Logger

    mu sync.Mutex
}

// NewBookingLog returns a writer for path (default logs/booking.log).
func NewBookingLog(path string, log *slog.Logger) *BookingLog {
    if path == "" {
        path = filepath.Join("logs", "booking.log")
    }
    return &BookingLog{Path: path, MaxBackoff: 30 * time.Second, Log: logging.OrDiscard(log)}
}

// Run consumes booking.confirmed until ctx is done, resubscribing with a
// doubling backoff whenever the subscription ends with an error.
func (b *BookingLog) Run(ctx context.Context, sub Subscriber) error {
    backoff := time.Second
    for {
        err := sub.Subscribe(ctx, TopicBookingConfirmed, BookingLogGroup, b.Handle)
        if ctx.Err() != nil {
            return ctx.Err()
        }
        b.Log.Warn("booking-consumer: subscription ended; retrying", "err", err, "backoff", backoff)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(backoff):
        }
        if backoff < b.MaxBackoff {
            backoff *= 2
        }
    }
}

// Handle decodes one BookingConfirmedEvent and appends its log line.
func (b *BookingLog) Handle(_ context.Context, body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    b.mu.Lock()
    defer b.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(b.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatBookingLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatBookingLine renders ev as a single human-friendly line.
func FormatBookingLine(ev BookingConfirmedEvent) string {
    line := fmt.Sprintf("[%s] Booking confirmed | order_id=%s | reservation_id=%s | user_id=%s | cafe=%q | date=%s %s | guests=%d | total=%s | down_payment=%s | payment=%q | tables=[%s]",
        ev.ConfirmedAt, ev.OrderID, ev.ReservationID, ev.UserID, ev.CafeName, ev.Date, ev.Time,
        ev.Guests, ev.TotalPrice, ev.DownPayment, ev.PaymentMethod, strings.Join(ev.Tables, ","))
    if len(ev.FailedTables) > 0 {
        line += fmt.Sprintf(" | unbooked=[%s]", strings.Join(ev.FailedTables, ","))
    }
    return line + "\n"
}
