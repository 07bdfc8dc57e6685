package queue

import (
    "context"
    "fmt"
    "log/slog"
    "sync"

    "github.com/nats-io/nats.go"

    "github.com/iliyamo/cafe-table-reservation/internal/logging"
)

// NATSBus maps topics to subjects and groups to queue groups.
type NATSBus struct {
    conn   *nats.Conn
    log    *slog.Logger
    closed chan struct{}
}

// NewNATSBus connects to url.
func NewNATSBus(url string, log *slog.Logger) (*NATSBus, error) {
    if url == "" {
        url = nats.DefaultURL
    }
    closed := make(chan struct{})
    var once sync.Once
    conn, err := nats.Connect(url,
        nats.Name("cafe-table-reservation"),
        nats.MaxReconnects(-1),
        nats.ClosedHandler(func(*nats.Conn) { once.Do(func() { close(closed) }) }),
    )
    if err != nil {
        return nil, fmt.Errorf("failed to connect to NATS: %w", err)
    }
    return &NATSBus{conn: conn, log: logging.OrDiscard(log), closed: closed}, nil
}

func (b *NATSBus) Publish(ctx context.Context, topic string, payload any) error {
    body, err := encode(payload)
    if err != nil {
        return err
    }
    return b.conn.Publish(topic, body)
}

func (b *NATSBus) Subscribe(ctx context.Context, topic, group string, h Handler) error {
    cb := func(msg *nats.Msg) {
        if err := h(ctx, msg.Data); err != nil {
            b.log.Warn("nats handler failed", "subject", msg.Subject, "err", err)
        }
    }
    var (
        sub *nats.Subscription
        err error
    )
    if group == "" {
        sub, err = b.conn.Subscribe(topic, cb)
    } else {
        sub, err = b.conn.QueueSubscribe(topic, group, cb)
    }
    if err != nil {
        return fmt.Errorf("nats subscribe %s: %w", topic, err)
    }
    defer func() { _ = sub.Unsubscribe() }()
    signalReady(ctx)

    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-b.closed:
        return nats.ErrConnectionClosed
    }
}

func (b *NATSBus) Close() error {
    b.conn.Close()
    return nil
}
