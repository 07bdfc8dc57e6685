package selection

import (
	"errors"
	"reflect"
	"testing"
)

type snapshot map[string]bool

func (s snapshot) Booked(id string) (bool, bool) {
	b, ok := s[id]
	return b, ok
}

func TestToggleBookedIsNoop(t *testing.T) {
	avail := snapshot{"T1": false, "T2": true}
	s := New("c1", Options{})
	if _, err := s.Toggle("T1", avail); err != nil {
		t.Fatal(err)
	}
	before := s.Selected()
	res, err := s.Toggle("T2", avail)
	if err != nil || res != Booked {
		t.Fatalf("toggle booked = %v, %v", res, err)
	}
	if !reflect.DeepEqual(before, s.Selected()) {
		t.Fatalf("selection changed: %v -> %v", before, s.Selected())
	}
}

func TestToggleBookedStaysEvenIfSelected(t *testing.T) {
	avail := snapshot{"T1": false}
	s := New("c1", Options{})
	_, _ = s.Toggle("T1", avail)
	avail["T1"] = true
	if res, _ := s.Toggle("T1", avail); res != Booked || !s.Contains("T1") {
		t.Fatalf("expected booked no-op, got %v contains=%v", res, s.Contains("T1"))
	}
}

func TestDoubleToggleIsNoop(t *testing.T) {
	avail := snapshot{"T1": false, "T2": false, "T3": false}
	for _, id := range []string{"T1", "T2", "T3"} {
		s := New("c1", Options{})
		_, _ = s.Toggle("T3", avail)
		before := s.Selected()
		r1, _ := s.Toggle(id, avail)
		r2, _ := s.Toggle(id, avail)
		if !r1.Changed() || !r2.Changed() {
			t.Fatalf("%s: expected both toggles to change state: %v %v", id, r1, r2)
		}
		if !reflect.DeepEqual(before, s.Selected()) {
			t.Fatalf("%s: double toggle changed selection %v -> %v", id, before, s.Selected())
		}
	}
}

func TestToggleUnknownAndNilAvailability(t *testing.T) {
	s := New("c1", Options{})
	if res, _ := s.Toggle("KASIR", snapshot{"T1": false}); res != Unknown || s.Count() != 0 {
		t.Fatalf("unknown toggle = %v count=%d", res, s.Count())
	}
	if res, _ := s.Toggle("T7", nil); res != Selected {
		t.Fatalf("toggle without snapshot = %v", res)
	}
}

func TestMaxSelections(t *testing.T) {
	avail := snapshot{"T1": false, "T2": false, "T3": false}
	cases := []struct {
		policy  LimitPolicy
		wantErr error
	}{
		{LimitSilent, nil},
		{LimitError, ErrSelectionLimit},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			s := New("c1", Options{MaxSelections: 2, Policy: tc.policy})
			_, _ = s.Toggle("T1", avail)
			_, _ = s.Toggle("T2", avail)
			res, err := s.Toggle("T3", avail)
			if res != Limited || !errors.Is(err, tc.wantErr) {
				t.Fatalf("toggle at limit = %v, %v", res, err)
			}
			if s.Count() != 2 || s.Contains("T3") {
				t.Fatalf("limit did not hold: %v", s.Selected())
			}
			if res, err := s.Toggle("T1", avail); res != Deselected || err != nil {
				t.Fatalf("deselect at limit = %v, %v", res, err)
			}
		})
	}
}

func TestClearAndCount(t *testing.T) {
	s := New("c1", Options{})
	s.Clear()
	if s.Count() != 0 {
		t.Fatal("count after clear on empty")
	}
	for _, id := range []string{"T1", "T2", "T9"} {
		_, _ = s.Toggle(id, nil)
	}
	s.Clear()
	if s.Count() != 0 {
		t.Fatalf("count after clear = %d", s.Count())
	}
}

func TestReset(t *testing.T) {
	s := New("c1", Options{})
	_, _ = s.Toggle("T1", nil)
	s.Reset("c2")
	if s.CafeID() != "c2" || s.Count() != 0 {
		t.Fatalf("reset left cafe=%s count=%d", s.CafeID(), s.Count())
	}
}

func TestDropBooked(t *testing.T) {
	avail := snapshot{"T1": false, "T2": false, "T10": false}
	s := New("c1", Options{})
	for _, id := range []string{"T1", "T2", "T10"} {
		_, _ = s.Toggle(id, avail)
	}
	avail["T10"] = true
	avail["T2"] = true
	if got := s.DropBooked(avail); !reflect.DeepEqual(got, []string{"T2", "T10"}) {
		t.Fatalf("dropped %v", got)
	}
	if !reflect.DeepEqual(s.Selected(), []string{"T1"}) {
		t.Fatalf("remaining %v", s.Selected())
	}
}

func TestParseLimitPolicy(t *testing.T) {
	for in, want := range map[string]LimitPolicy{"": LimitSilent, "silent": LimitSilent, "ERROR": LimitError} {
		got, err := ParseLimitPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseLimitPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLimitPolicy("loud"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
