// Package selection holds the set of tables a customer has picked during a
// reservation session and enforces which toggles are legal.
package selection

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrSelectionLimit is returned by Toggle when the selection is full and
// the limit policy is LimitError.
var ErrSelectionLimit = errors.New("selection limit reached")

// Availability answers whether a table is booked. known is false for ids
// the latest snapshot does not contain.
type Availability interface {
	Booked(tableID string) (booked, known bool)
}

// LimitPolicy decides how a toggle rejected by MaxSelections is reported.
type LimitPolicy int

const (
	// LimitSilent rejects the toggle without an error.
	LimitSilent LimitPolicy = iota
	// LimitError rejects the toggle and returns ErrSelectionLimit.
	LimitError
)

// ParseLimitPolicy maps "silent" and "error" to a LimitPolicy.
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return LimitSilent, nil
	case "error", "surface", "surfaced":
		return LimitError, nil
	}
	return LimitSilent, fmt.Errorf("unknown selection limit policy %q", s)
}

func (p LimitPolicy) String() string {
	if p == LimitError {
		return "error"
	}
	return "silent"
}

// ToggleResult describes what a Toggle call did.
type ToggleResult int

const (
	Selected   ToggleResult = iota // added to the selection
	Deselected                     // removed from the selection
	Booked                         // no-op, table is booked
	Unknown                        // no-op, table not in the snapshot
	Limited                        // no-op, selection is full
)

var toggleNames = [...]string{"selected", "deselected", "booked", "unknown", "limited"}

func (r ToggleResult) String() string {
	if int(r) < len(toggleNames) {
		return toggleNames[r]
	}
	return "invalid"
}

// Changed reports whether the selection was modified.
func (r ToggleResult) Changed() bool { return r == Selected || r == Deselected }

// Options bound a State. MaxSelections <= 0 means unbounded.
type Options struct {
	MaxSelections int
	Policy        LimitPolicy
}

// State is the selection of one reservation session. It is safe for
// concurrent use although a single session is its only writer.
type State struct {
	mu       sync.RWMutex
	cafeID   string
	selected map[string]struct{}
	opts     Options
}

// New returns an empty selection for cafeID.
func New(cafeID string, opts Options) *State {
	return &State{cafeID: cafeID, selected: make(map[string]struct{}), opts: opts}
}

// CafeID returns the cafe the selection belongs to.
func (s *State) CafeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cafeID
}

// Toggle flips tableID in the selection. A booked table is never touched.
// A selected table is always removable. When avail is nil the toggle is
// allowed on a best-effort basis.
func (s *State) Toggle(tableID string, avail Availability) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booked, known := false, true
	if avail != nil {
		booked, known = avail.Booked(tableID)
	}
	if known && booked {
		return Booked, nil
	}
	if _, ok := s.selected[tableID]; ok {
		delete(s.selected, tableID)
		return Deselected, nil
	}
	if !known {
		return Unknown, nil
	}
	if s.opts.MaxSelections > 0 && len(s.selected) >= s.opts.MaxSelections {
		if s.opts.Policy == LimitError {
			return Limited, ErrSelectionLimit
		}
		return Limited, nil
	}
	s.selected[tableID] = struct{}{}
	return Selected, nil
}

// Clear empties the selection.
func (s *State) Clear() {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.mu.Unlock()
}

// Reset clears the selection and rebinds it to cafeID.
func (s *State) Reset(cafeID string) {
	s.mu.Lock()
	s.cafeID = cafeID
	s.selected = make(map[string]struct{})
	s.mu.Unlock()
}

// Count returns the number of selected tables.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Contains reports whether tableID is selected.
func (s *State) Contains(tableID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[tableID]
	return ok
}

// Selected returns the selected ids in display order.
func (s *State) Selected() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	// map order is random; sort lexically first so ties stay deterministic
	sortStrings(ids)
	return SortTableIDs(ids)
}

// DropBooked removes every selected table avail reports as booked and
// returns the removed ids in display order.
func (s *State) DropBooked(avail Availability) []string {
	if avail == nil {
		return nil
	}
	s.mu.Lock()
	var dropped []string
	for id := range s.selected {
		if booked, known := avail.Booked(id); known && booked {
			delete(s.selected, id)
			dropped = append(dropped, id)
		}
	}
	s.mu.Unlock()
	sortStrings(dropped)
	return SortTableIDs(dropped)
}
