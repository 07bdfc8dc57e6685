package availability

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// ErrFeedEnded is reported when the source stops without an error.
var ErrFeedEnded = errors.New("availability feed ended")

// Feed opens per-cafe snapshot subscriptions on a TableWatcher.
type Feed struct {
	watcher store.TableWatcher
	filter  SeatFilter
	log     *slog.Logger
	now     func() time.Time
}

// FeedOption customises a Feed.
type FeedOption func(*Feed)

// WithNonSeatIDs replaces the default layout markers.
func WithNonSeatIDs(ids []string) FeedOption {
	return func(f *Feed) { f.filter = NewSeatFilter(ids) }
}

// WithLogger sets the feed logger.
func WithLogger(l *slog.Logger) FeedOption {
	return func(f *Feed) { f.log = logging.OrDiscard(l) }
}

// NewFeed returns a feed reading from w.
func NewFeed(w store.TableWatcher, opts ...FeedOption) *Feed {
	f := &Feed{
		watcher: w,
		filter:  NewSeatFilter(nil),
		log:     logging.Discard(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Filter returns the seat filter applied to every snapshot.
func (f *Feed) Filter() SeatFilter { return f.filter }

// Subscribe starts streaming snapshots of cafeID. The subscription lives
// until Close is called, ctx is done or the source fails.
func (f *Feed) Subscribe(ctx context.Context, cafeID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cafeID:  cafeID,
		cancel:  cancel,
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
	}
	go s.run(ctx, f)
	return s
}

// Subscription is one live snapshot stream. Updates delivers the newest
// snapshot; a slow reader skips stale ones. When the stream ends Updates
// is closed, Err reports why and Latest still returns the last snapshot.
type Subscription struct {
	cafeID  string
	cancel  context.CancelFunc
	updates chan Snapshot
	done    chan struct{}

	mu     sync.RWMutex
	latest *Snapshot
	err    error
	closed bool
}

func (s *Subscription) run(ctx context.Context, f *Feed) {
	defer close(s.done)
	defer close(s.updates)

	err := f.watcher.WatchTables(ctx, s.cafeID, func(tables []model.Table) {
		snap := NewSnapshot(s.cafeID, f.filter.Tables(tables), f.now())
		s.mu.Lock()
		s.latest = &snap
		s.mu.Unlock()
		s.push(snap)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ctx.Err() != nil {
		return
	}
	if err == nil {
		err = ErrFeedEnded
	}
	s.err = err
	f.log.Warn("availability feed failed", "cafe_id", s.cafeID, "err", err)
}

func (s *Subscription) push(snap Snapshot) {
	select {
	case s.updates <- snap:
		return
	default:
	}
	// replace the stale pending snapshot
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

// CafeID returns the cafe being watched.
func (s *Subscription) CafeID() string { return s.cafeID }

// Updates returns the snapshot channel.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Done is closed once the stream has fully stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Latest returns the most recent snapshot, if any arrived.
func (s *Subscription) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}

// Err returns the error that terminated the stream, or nil while it is
// running or after a Close.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close tears the stream down and waits for it to stop. Calling it again
// is a no-op.
func (s *Subscription) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	<-s.done
}

func sortLex(ids []string) { sort.Strings(ids) }
