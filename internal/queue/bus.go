package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "strings"
)

// Handler processes one message body. A returned error is logged and the
// message is dropped; drivers never redeliver in a tight loop.
type Handler func(ctx context.Context, body []byte) error

// Publisher sends a JSON payload to a topic.
type Publisher interface {
    Publish(ctx context.Context, topic string, payload any) error
}

// Subscriber consumes a topic. Subscribe blocks until ctx is done or the
// connection fails. An empty group receives every message (fan-out);
// subscribers sharing a non-empty group compete for messages.
type Subscriber interface {
    Subscribe(ctx context.Context, topic, group string, h Handler) error
}

type readyKey struct{}

// WithReady returns a ctx that makes Subscribe call fn once the
// subscription is registered with the broker. Messages published after
// fn runs reach the handler.
func WithReady(ctx context.Context, fn func()) context.Context {
    return context.WithValue(ctx, readyKey{}, fn)
}

func signalReady(ctx context.Context) {
    if fn, ok := ctx.Value(readyKey{}).(func()); ok && fn != nil {
        fn()
    }
}

// Bus is a broker connection usable for both directions.
type Bus interface {
    Publisher
    Subscriber
    Close() error
}

// Settings selects and configures a broker driver.
type Settings struct {
    Driver       string // none | rabbitmq | nats | kafka
    RabbitURL    string
    NATSURL      string
    KafkaBrokers []string
    KafkaGroup   string // prefix for fan-out consumer groups
}

// Open connects the bus named by s.Driver. "none" (or empty) yields an
// in-process bus.
func Open(s Settings, log *slog.Logger) (Bus, error) {
    switch strings.ToLower(strings.TrimSpace(s.Driver)) {
    case "", "none", "local":
        return NewLocalBus(log), nil
    case "rabbitmq", "amqp":
        return NewAMQPBus(s.RabbitURL, log)
    case "nats":
        return NewNATSBus(s.NATSURL, log)
    case "kafka":
        return NewKafkaBus(s.KafkaBrokers, s.KafkaGroup, log), nil
    }
    return nil, fmt.Errorf("unknown events driver %q", s.Driver)
}

func encode(payload any) ([]byte, error) {
    if b, ok := payload.([]byte); ok {
        return b, nil
    }
    body, err := json.Marshal(payload)
    if err != nil {
        return nil, fmt.Errorf("marshal event: %w", err)
    }
    return body, nil
}
