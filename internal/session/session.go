// Package session owns the live reservation flow of each customer: one
// availability subscription and one table selection, both bound to the
// cafe the customer is currently looking at.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/availability"
	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
)

// Options tune sessions created by a Manager.
type Options struct {
	Selection selection.Options
	RetryMin  time.Duration
	RetryMax  time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryMin <= 0 {
		o.RetryMin = time.Second
	}
	if o.RetryMax < o.RetryMin {
		o.RetryMax = 30 * time.Second
	}
	return o
}

// Manager keeps one Session per user.
type Manager struct {
	feed *availability.Feed
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager opening subscriptions on feed.
func NewManager(feed *availability.Feed, opts Options, log *slog.Logger) *Manager {
	return &Manager{
		feed:     feed,
		opts:     opts.withDefaults(),
		log:      logging.OrDiscard(log),
		sessions: make(map[string]*Session),
	}
}

// Enter binds the user's session to cafeID, creating it if needed.
// Entering a different cafe tears down the old subscription and clears
// the selection; entering the same cafe again keeps both.
func (m *Manager) Enter(userID, cafeID string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{
			userID:  userID,
			mgr:     m,
			sel:     selection.New(cafeID, m.opts.Selection),
			changed: make(chan struct{}),
		}
		m.sessions[userID] = s
	}
	m.mu.Unlock()
	s.bind(cafeID)

	// a concurrent Leave or Close may have detached s while it was binding
	m.mu.Lock()
	live := m.sessions[userID] == s
	m.mu.Unlock()
	if !live {
		s.stop()
	}
	return s
}

// Get returns the user's session, if one is open.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Leave ends the user's session. It is a no-op when none is open.
func (m *Manager) Leave(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.stop()
		s.sel.Clear()
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.stop()
	}
}

// Session is the reservation flow of one user.
type Session struct {
	userID string
	mgr    *Manager
	sel    *selection.State

	ctl sync.Mutex // serialises bind and stop

	mu      sync.Mutex
	cafeID  string
	snap    *availability.Snapshot
	feedErr error
	cancel  context.CancelFunc
	done    chan struct{}
	changed chan struct{}
}

func (s *Session) bind(cafeID string) {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.mu.Lock()
	if s.cafeID == cafeID && s.cancel != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stopLocked()
	s.sel.Reset(cafeID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.cafeID = cafeID
	s.snap = nil
	s.feedErr = nil
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	go s.watch(ctx, cafeID, done)
}

func (s *Session) stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// watch keeps a subscription open for cafeID, resubscribing with a
// doubling backoff after failures. The last snapshot survives failures.
func (s *Session) watch(ctx context.Context, cafeID string, done chan struct{}) {
	defer close(done)
	opts := s.mgr.opts
	backoff := opts.RetryMin
	for {
		sub := s.mgr.feed.Subscribe(ctx, cafeID)
		for snap := range sub.Updates() {
			s.update(cafeID, snap)
			backoff = opts.RetryMin
		}
		err := sub.Err()
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		s.feedErr = err
		s.mu.Unlock()
		s.mgr.log.Warn("table feed lost; using last snapshot",
			"user_id", s.userID, "cafe_id", cafeID, "err", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > opts.RetryMax {
			backoff = opts.RetryMax
		}
	}
}

func (s *Session) update(cafeID string, snap availability.Snapshot) {
	s.mu.Lock()
	if s.cafeID != cafeID {
		s.mu.Unlock()
		return
	}
	s.snap = &snap
	s.feedErr = nil
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if dropped := s.sel.DropBooked(snap); len(dropped) > 0 {
		s.mgr.log.Info("selected tables booked elsewhere", "user_id", s.userID, "cafe_id", cafeID, "tables", dropped)
	}
}

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// CafeID returns the cafe the session is bound to.
func (s *Session) CafeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cafeID
}

// Selection returns the session's selection state.
func (s *Session) Selection() *selection.State { return s.sel }

// Snapshot returns the last-known availability of the bound cafe.
func (s *Session) Snapshot() (availability.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return availability.Snapshot{}, false
	}
	return *s.snap, true
}

// FeedErr returns the error of the last failed subscription, cleared by
// the next snapshot.
func (s *Session) FeedErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedErr
}

// Toggle flips tableID against the last-known snapshot.
func (s *Session) Toggle(tableID string) (selection.ToggleResult, error) {
	var avail selection.Availability
	if snap, ok := s.Snapshot(); ok {
		avail = snap
	}
	return s.sel.Toggle(tableID, avail)
}

// WaitSnapshot blocks until a snapshot is available or ctx is done.
func (s *Session) WaitSnapshot(ctx context.Context) (availability.Snapshot, error) {
	for {
		s.mu.Lock()
		if s.snap != nil {
			snap := *s.snap
			s.mu.Unlock()
			return snap, nil
		}
		ch := s.changed
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return availability.Snapshot{}, ctx.Err()
		case <-ch:
		}
	}
}
