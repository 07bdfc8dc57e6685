package queue

import (
    "context"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestBookingLogHandle(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "booking.log")
    bl := NewBookingLog(path, nil)
    ev := BookingConfirmedEvent{
        OrderID: "o1", ReservationID: "r1", UserID: "u1", CafeName: "Kopi Satu",
        Date: "2024-05-01", Time: "19:30", Guests: 4, Tables: []string{"T1", "T2"},
        FailedTables: []string{"T2"}, TotalPrice: "42000", DownPayment: "21000",
        PaymentMethod: "QRIS", ConfirmedAt: "2024-05-01T12:00:00Z",
    }
    body, _ := json.Marshal(ev)
    for i := 0; i < 2; i++ {
        if err := bl.Handle(context.Background(), body); err != nil {
            t.Fatalf("handle: %v", err)
        }
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d", len(lines))
    }
    for _, want := range []string{"order_id=o1", "tables=[T1,T2]", "unbooked=[T2]", `cafe="Kopi Satu"`} {
        if !strings.Contains(lines[0], want) {
            t.Fatalf("line %q missing %q", lines[0], want)
        }
    }
    if err := bl.Handle(context.Background(), []byte("{")); err == nil {
        t.Fatal("expected error for malformed body")
    }
}

func TestBookingLogRunConsumesFromBus(t *testing.T) {
    path := filepath.Join(t.TempDir(), "booking.log")
    bl := NewBookingLog(path, nil)
    bus := NewLocalBus(nil)
    defer bus.Close()

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go bl.Run(ctx, bus)
    waitSubscribers(t, bus, TopicBookingConfirmed, 1)

    if err := bus.Publish(ctx, TopicBookingConfirmed, BookingConfirmedEvent{OrderID: "o9"}); err != nil {
        t.Fatal(err)
    }
    deadline := time.Now().Add(time.Second)
    for time.Now().Before(deadline) {
        if data, err := os.ReadFile(path); err == nil && strings.Contains(string(data), "order_id=o9") {
            return
        }
        time.Sleep(5 * time.Millisecond)
    }
    t.Fatal("booking line never written")
}
