package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
)

func TestNotFound(t *testing.T) {
	if !errors.Is(notFound(sql.ErrNoRows), apperr.ErrNotFound) {
		t.Fatal("ErrNoRows should map to ErrNotFound")
	}
	if !errors.Is(notFound(fmt.Errorf("scan: %w", sql.ErrNoRows)), apperr.ErrNotFound) {
		t.Fatal("wrapped ErrNoRows should map to ErrNotFound")
	}
	other := errors.New("bad connection")
	if notFound(other) != other {
		t.Fatal("other errors must pass through")
	}
	if notFound(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestIsDuplicate(t *testing.T) {
	if !isDuplicate(errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'uq_users_email'")) {
		t.Fatal("1062 not detected")
	}
	if isDuplicate(errors.New("Error 1045: access denied")) || isDuplicate(nil) {
		t.Fatal("false positive")
	}
}

type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("scan: want %d columns, got %d", len(dest), len(r))
	}
	for i, v := range r {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestScanReservation(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	row := fakeRow{"r1", "c1", "Kopi Senja", "u1", "Ayu", "2024-05-01", "19:30", 4, []byte(`["T2","T10"]`), at}
	r, err := scanReservation(row)
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "r1" || r.TotalGuests != 4 || !r.CreatedAt.Equal(at) {
		t.Fatalf("unexpected %+v", r)
	}
	if !reflect.DeepEqual(r.SelectedTables, []string{"T2", "T10"}) {
		t.Fatalf("tables %v", r.SelectedTables)
	}

	bad := fakeRow{"r1", "c1", "", "u1", "Ayu", "d", "t", 1, []byte(`not json`), at}
	if _, err := scanReservation(bad); err == nil {
		t.Fatal("expected decode error")
	}
}
