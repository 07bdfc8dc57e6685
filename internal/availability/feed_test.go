package availability

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
)

// scriptedWatcher emits the lists sent on push and fails with the error
// sent on fail.
type scriptedWatcher struct {
	push  chan []model.Table
	fail  chan error
	mu    sync.Mutex
	calls int
}

func newScripted() *scriptedWatcher {
	return &scriptedWatcher{push: make(chan []model.Table), fail: make(chan error, 1)}
}

func (w *scriptedWatcher) WatchTables(ctx context.Context, cafeID string, fn func([]model.Table)) error {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-w.fail:
			return err
		case ts := <-w.push:
			fn(ts)
		}
	}
}

func recv(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case s, ok := <-sub.Updates():
		if !ok {
			t.Fatal("updates closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}
	return Snapshot{}
}

func TestFeedFiltersMarkersAndDeliversFullSnapshots(t *testing.T) {
	w := newScripted()
	sub := NewFeed(w).Subscribe(context.Background(), "c1")
	defer sub.Close()

	w.push <- []model.Table{{ID: "T10"}, {ID: "T2", Booked: true}, {ID: "T1"}, {ID: "KASIR"}, {ID: " photo booth "}, {ID: "TEMPAT PARKIR"}}
	snap := recv(t, sub)
	if got := snap.TableIDs(); !reflect.DeepEqual(got, []string{"T1", "T2", "T10"}) {
		t.Fatalf("table ids = %v", got)
	}
	if booked, known := snap.Booked("T2"); !booked || !known {
		t.Fatal("T2 should be booked")
	}
	if _, known := snap.Booked("KASIR"); known {
		t.Fatal("marker leaked into snapshot")
	}
	if snap.FreeCount() != 2 {
		t.Fatalf("free = %d", snap.FreeCount())
	}

	w.push <- []model.Table{{ID: "T1", Booked: true}}
	next := recv(t, sub)
	if len(next.Tables) != 1 || !next.Tables["T1"] {
		t.Fatalf("expected replacement snapshot, got %v", next.Tables)
	}
}

func TestFeedErrorKeepsLatest(t *testing.T) {
	w := newScripted()
	sub := NewFeed(w).Subscribe(context.Background(), "c1")
	w.push <- []model.Table{{ID: "T1"}}
	_ = recv(t, sub)

	boom := errors.New("permission denied")
	w.fail <- boom
	<-sub.Done()
	if _, ok := <-sub.Updates(); ok {
		t.Fatal("updates should be closed after failure")
	}
	if !errors.Is(sub.Err(), boom) {
		t.Fatalf("Err() = %v", sub.Err())
	}
	if snap, ok := sub.Latest(); !ok || len(snap.Tables) != 1 {
		t.Fatalf("latest lost after failure: %+v %v", snap, ok)
	}
	sub.Close()
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	w := newScripted()
	sub := NewFeed(w).Subscribe(context.Background(), "c1")
	sub.Close()
	sub.Close()
	if sub.Err() != nil {
		t.Fatalf("close should not record an error, got %v", sub.Err())
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestSlowReaderSeesNewest(t *testing.T) {
	w := newScripted()
	sub := NewFeed(w).Subscribe(context.Background(), "c1")
	defer sub.Close()
	for i := 0; i < 3; i++ {
		w.push <- []model.Table{{ID: "T1", Booked: i == 2}}
	}
	newest := []model.Table{{ID: "T1", Booked: true}, {ID: "T2"}}
	w.push <- newest
	// the watcher handles pushes in order, so once this one is received the
	// previous snapshot has been delivered
	w.push <- newest
	snap := recv(t, sub)
	if len(snap.Tables) != 2 {
		t.Fatalf("expected newest snapshot, got %v", snap.Tables)
	}
}

func TestCustomMarkers(t *testing.T) {
	w := newScripted()
	sub := NewFeed(w, WithNonSeatIDs([]string{"BAR"})).Subscribe(context.Background(), "c1")
	defer sub.Close()
	w.push <- []model.Table{{ID: "BAR"}, {ID: "KASIR"}}
	snap := recv(t, sub)
	if _, ok := snap.Tables["KASIR"]; !ok || len(snap.Tables) != 1 {
		t.Fatalf("custom markers not applied: %v", snap.Tables)
	}
}

func TestFilterThenSort(t *testing.T) {
	got := selection.SortTableIDs(FilterSeatIDs([]string{"T10", "T2", "T1", "KASIR"}))
	if !reflect.DeepEqual(got, []string{"T1", "T2", "T10"}) {
		t.Fatalf("got %v", got)
	}
}

func TestSnapshotRows(t *testing.T) {
	snap := NewSnapshot("c1", []model.Table{{ID: "T3", Booked: true}, {ID: "T1"}}, time.Now())
	rows := snap.Rows()
	if len(rows) != 2 || rows[0].ID != "T1" || !rows[1].Booked || rows[1].CafeID != "c1" {
		t.Fatalf("rows = %+v", rows)
	}
}
