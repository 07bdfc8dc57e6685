// Package availability turns a cafe's table collection into a stream of
// full booking snapshots that selection logic can trust.
package availability

import (
	"strings"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
)

// DefaultNonSeatIDs are layout markers stored beside real tables.
var DefaultNonSeatIDs = []string{"PHOTO BOOTH", "KASIR", "TEMPAT PARKIR"}

// SeatFilter drops non-seat identifiers. Matching ignores case and
// surrounding spaces.
type SeatFilter struct {
	markers map[string]struct{}
}

// NewSeatFilter builds a filter for markers; nil means DefaultNonSeatIDs.
func NewSeatFilter(markers []string) SeatFilter {
	if markers == nil {
		markers = DefaultNonSeatIDs
	}
	f := SeatFilter{markers: make(map[string]struct{}, len(markers))}
	for _, m := range markers {
		if m = normalize(m); m != "" {
			f.markers[m] = struct{}{}
		}
	}
	return f
}

func normalize(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }

// IsSeat reports whether id is a bookable table.
func (f SeatFilter) IsSeat(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	_, marker := f.markers[normalize(id)]
	return !marker
}

// Tables returns the seats among tables, keeping their order.
func (f SeatFilter) Tables(tables []model.Table) []model.Table {
	out := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if f.IsSeat(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// FilterSeatIDs removes the default layout markers from ids.
func FilterSeatIDs(ids []string) []string {
	f := NewSeatFilter(nil)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if f.IsSeat(id) {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot is the full booking state of one cafe at a point in time. It
// is replaced wholesale on every update and never mutated.
type Snapshot struct {
	CafeID     string
	Tables     map[string]bool // table id -> booked
	ReceivedAt time.Time
}

// NewSnapshot builds a snapshot from already-filtered tables.
func NewSnapshot(cafeID string, tables []model.Table, at time.Time) Snapshot {
	m := make(map[string]bool, len(tables))
	for _, t := range tables {
		m[t.ID] = t.Booked
	}
	return Snapshot{CafeID: cafeID, Tables: m, ReceivedAt: at}
}

// Booked implements selection.Availability.
func (s Snapshot) Booked(tableID string) (booked, known bool) {
	booked, known = s.Tables[tableID]
	return booked, known
}

var _ selection.Availability = Snapshot{}

// TableIDs returns every table id in display order.
func (s Snapshot) TableIDs() []string {
	ids := make([]string, 0, len(s.Tables))
	for id := range s.Tables {
		ids = append(ids, id)
	}
	sortLex(ids)
	return selection.SortTableIDs(ids)
}

// Rows returns the tables in display order.
func (s Snapshot) Rows() []model.Table {
	ids := s.TableIDs()
	out := make([]model.Table, len(ids))
	for i, id := range ids {
		out[i] = model.Table{CafeID: s.CafeID, ID: id, Booked: s.Tables[id]}
	}
	return out
}

// FreeCount returns the number of unbooked tables.
func (s Snapshot) FreeCount() int {
	n := 0
	for _, booked := range s.Tables {
		if !booked {
			n++
		}
	}
	return n
}
