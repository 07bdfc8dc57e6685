package availability

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// NotifyingTableStore publishes a tables.changed event after every
// successful booking update of the wrapped store.
type NotifyingTableStore struct {
	store.TableStore
	Pub queue.Publisher
	Log *slog.Logger
}

// SetTableBooked updates the flag and then announces the change. A
// publish failure is logged; the update itself already succeeded.
func (n *NotifyingTableStore) SetTableBooked(ctx context.Context, cafeID, tableID string, booked bool) error {
	if err := n.TableStore.SetTableBooked(ctx, cafeID, tableID, booked); err != nil {
		return err
	}
	ev := queue.TablesChangedEvent{CafeID: cafeID, TableIDs: []string{tableID}, At: time.Now().UTC().Format(time.RFC3339)}
	if err := n.Pub.Publish(ctx, queue.TopicTablesChanged, ev); err != nil {
		logging.OrDiscard(n.Log).Warn("publish tables.changed failed", "cafe_id", cafeID, "table_id", tableID, "err", err)
	}
	return nil
}

// NotifiedWatcher is a push-based TableWatcher for stores without a
// native change feed. Once its tables.changed subscription is live it
// lists the tables, then re-lists them each time an event for the cafe
// arrives.
type NotifiedWatcher struct {
	Tables store.TableStore
	Sub    queue.Subscriber
}

var _ store.TableWatcher = (*NotifiedWatcher)(nil)

func (w *NotifiedWatcher) WatchTables(ctx context.Context, cafeID string, fn func([]model.Table)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := make(chan struct{}, 1)
	subErr := make(chan error, 1)
	ready := make(chan struct{})
	var once sync.Once
	subCtx := queue.WithReady(ctx, func() { once.Do(func() { close(ready) }) })
	go func() {
		subErr <- w.Sub.Subscribe(subCtx, queue.TopicTablesChanged, "", func(_ context.Context, body []byte) error {
			var ev queue.TablesChangedEvent
			if err := json.Unmarshal(body, &ev); err != nil {
				return err
			}
			if ev.CafeID != cafeID {
				return nil
			}
			select {
			case signals <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	list := func() error {
		tables, err := w.Tables.ListTables(ctx, cafeID)
		if err != nil {
			return err
		}
		fn(tables)
		return nil
	}
	subFailed := func(err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = ErrFeedEnded
		}
		return err
	}

	// events published before the subscription is live would be missed
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-subErr:
		return subFailed(err)
	case <-ready:
	}
	if err := list(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subErr:
			return subFailed(err)
		case <-signals:
			if err := list(); err != nil {
				return err
			}
		}
	}
}
