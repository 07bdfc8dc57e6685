package queue

import (
    "context"
    "fmt"
    "log/slog"
    "time"

    "github.com/google/uuid"
    "github.com/segmentio/kafka-go"

    "github.com/iliyamo/cafe-table-reservation/internal/logging"
)

// KafkaBus writes every topic through one shared writer. Consumer groups
// map to Kafka groups; fan-out subscribers get a private group derived
// from the configured prefix so each receives every new message.
type KafkaBus struct {
    brokers []string
    prefix  string
    writer  *kafka.Writer
    log     *slog.Logger
}

// NewKafkaBus builds a bus for brokers. No connection is made until the
// first publish or subscribe.
func NewKafkaBus(brokers []string, groupPrefix string, log *slog.Logger) *KafkaBus {
    if len(brokers) == 0 {
        brokers = []string{"localhost:9092"}
    }
    if groupPrefix == "" {
        groupPrefix = "cafe-table-reservation"
    }
    return &KafkaBus{
        brokers: brokers,
        prefix:  groupPrefix,
        writer: &kafka.Writer{
            Addr:                   kafka.TCP(brokers...),
            Balancer:               &kafka.Hash{},
            AllowAutoTopicCreation: true,
            BatchTimeout:           10 * time.Millisecond,
        },
        log: logging.OrDiscard(log),
    }
}

func (b *KafkaBus) Publish(ctx context.Context, topic string, payload any) error {
    body, err := encode(payload)
    if err != nil {
        return err
    }
    return b.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Value: body, Time: time.Now().UTC()})
}

func (b *KafkaBus) Subscribe(ctx context.Context, topic, group string, h Handler) error {
    cfg := kafka.ReaderConfig{
        Brokers: b.brokers,
        GroupID: group,
        Topic:   topic,
    }
    if group == "" {
        cfg.GroupID = b.prefix + "-" + uuid.NewString()
        cfg.StartOffset = kafka.LastOffset
    }
    reader := kafka.NewReader(cfg)
    defer func() { _ = reader.Close() }()
    signalReady(ctx)

    for {
        m, err := reader.FetchMessage(ctx)
        if err != nil {
            if ctx.Err() != nil {
                return ctx.Err()
            }
            return fmt.Errorf("kafka fetch %s: %w", topic, err)
        }
        if err := h(ctx, m.Value); err != nil {
            b.log.Warn("kafka handler failed",
                slog.String("topic", m.Topic),
                slog.Int("partition", m.Partition),
                slog.Int64("offset", m.Offset),
                slog.Any("err", err),
            )
        }
        if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
            b.log.Warn("kafka commit failed", "topic", m.Topic, "err", err)
        }
    }
}

func (b *KafkaBus) Close() error { return b.writer.Close() }
