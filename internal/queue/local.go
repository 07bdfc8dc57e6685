package queue

import (
    "context"
    "errors"
    "log/slog"
    "sync"

    "github.com/iliyamo/cafe-table-reservation/internal/logging"
)

// ErrBusClosed is returned by Subscribe once the bus has been closed.
var ErrBusClosed = errors.New("bus closed")

type localSub struct {
    group string
    ch    chan []byte
}

// LocalBus delivers messages between goroutines of one process. It backs
// the "none" driver so single-instance deployments still get table change
// notifications.
type LocalBus struct {
    mu     sync.Mutex
    subs   map[string][]*localSub
    next   map[string]int // topic/group -> round-robin cursor
    done   chan struct{}
    closed bool
    log    *slog.Logger
}

// NewLocalBus returns an empty in-process bus.
func NewLocalBus(log *slog.Logger) *LocalBus {
    return &LocalBus{
        subs: make(map[string][]*localSub),
        next: make(map[string]int),
        done: make(chan struct{}),
        log:  logging.OrDiscard(log),
    }
}

// Publish hands the payload to every fan-out subscriber of topic and to
// one member of each consumer group.
func (b *LocalBus) Publish(ctx context.Context, topic string, payload any) error {
    body, err := encode(payload)
    if err != nil {
        return err
    }
    b.mu.Lock()
    if b.closed {
        b.mu.Unlock()
        return ErrBusClosed
    }
    var targets []*localSub
    groups := map[string][]*localSub{}
    for _, s := range b.subs[topic] {
        if s.group == "" {
            targets = append(targets, s)
        } else {
            groups[s.group] = append(groups[s.group], s)
        }
    }
    for g, members := range groups {
        key := topic + "/" + g
        targets = append(targets, members[b.next[key]%len(members)])
        b.next[key]++
    }
    b.mu.Unlock()

    for _, s := range targets {
        select {
        case s.ch <- body:
        case <-ctx.Done():
            return ctx.Err()
        case <-b.done:
            return ErrBusClosed
        }
    }
    return nil
}

// Subscribe registers h on topic and runs it for each delivered message
// until ctx is done or the bus is closed.
func (b *LocalBus) Subscribe(ctx context.Context, topic, group string, h Handler) error {
    sub := &localSub{group: group, ch: make(chan []byte, 64)}
    b.mu.Lock()
    if b.closed {
        b.mu.Unlock()
        return ErrBusClosed
    }
    b.subs[topic] = append(b.subs[topic], sub)
    b.mu.Unlock()
    defer b.remove(topic, sub)
    signalReady(ctx)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-b.done:
            return ErrBusClosed
        case body := <-sub.ch:
            if err := h(ctx, body); err != nil {
                b.log.Warn("local bus handler failed", "topic", topic, "group", group, "err", err)
            }
        }
    }
}

func (b *LocalBus) remove(topic string, sub *localSub) {
    b.mu.Lock()
    defer b.mu.Unlock()
    list := b.subs[topic]
    for i, s := range list {
        if s == sub {
            b.subs[topic] = append(list[:i], list[i+1:]...)
            break
        }
    }
    if len(b.subs[topic]) == 0 {
        delete(b.subs, topic)
    }
}

// Close stops every subscriber. It is safe to call more than once.
func (b *LocalBus) Close() error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if !b.closed {
        b.closed = true
        close(b.done)
    }
    return nil
}
