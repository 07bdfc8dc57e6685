package reservation

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
)

type fakeStore struct {
	calls   int
	err     error
	created []model.Reservation
	byID    map[string]model.Reservation
}

func (f *fakeStore) CreateReservation(_ context.Context, r model.Reservation) (model.Reservation, error) {
	f.calls++
	if f.err != nil {
		return model.Reservation{}, f.err
	}
	r.ID = "res-1"
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeStore) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	f.calls++
	r, ok := f.byID[id]
	if !ok {
		return model.Reservation{}, apperr.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListReservationsByUser(context.Context, string) ([]model.Reservation, error) {
	f.calls++
	return nil, f.err
}

func validRequest() Request {
	return Request{
		CafeID: "c1", CafeName: "Kopi Satu", UserID: "u1", UserName: "Ana",
		Date: "2024-05-01", Time: "19:30", TotalGuests: 3,
	}
}

func selected(ids ...string) *selection.State {
	s := selection.New("c1", selection.Options{})
	for _, id := range ids {
		_, _ = s.Toggle(id, nil)
	}
	return s
}

func TestCreateReservationValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"empty user name", func(r *Request) { r.UserName = "" }, "userName"},
		{"blank user name", func(r *Request) { r.UserName = "   " }, "userName"},
		{"missing cafe", func(r *Request) { r.CafeID = "" }, "cafeId"},
		{"missing date", func(r *Request) { r.Date = "" }, "date"},
		{"missing time", func(r *Request) { r.Time = "" }, "time"},
		{"zero guests", func(r *Request) { r.TotalGuests = 0 }, "totalGuests"},
		{"other cafe", func(r *Request) { r.CafeID = "c2" }, "cafeId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := &fakeStore{}
			sel := selected("T1")
			req := validRequest()
			tc.mutate(&req)
			_, err := NewCoordinator(fs, nil).CreateReservation(context.Background(), req, sel)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if fs.calls != 0 {
				t.Fatalf("backend called %d times", fs.calls)
			}
			if sel.Count() != 1 {
				t.Fatal("selection cleared on validation failure")
			}
		})
	}
}

func TestCreateReservationNoTables(t *testing.T) {
	fs := &fakeStore{}
	_, err := NewCoordinator(fs, nil).CreateReservation(context.Background(), validRequest(), selected())
	if !apperr.IsValidation(err) || fs.calls != 0 {
		t.Fatalf("expected validation error without backend calls, got %v (%d calls)", err, fs.calls)
	}
}

func TestCreateReservationSuccessClearsSelection(t *testing.T) {
	fs := &fakeStore{}
	sel := selected("T10", "T2", "T1")
	id, err := NewCoordinator(fs, nil).CreateReservation(context.Background(), validRequest(), sel)
	if err != nil || id != "res-1" {
		t.Fatalf("create = %q, %v", id, err)
	}
	if fs.calls != 1 || len(fs.created) != 1 {
		t.Fatalf("expected exactly one create, got %d", fs.calls)
	}
	if got := fs.created[0].SelectedTables; !reflect.DeepEqual(got, []string{"T1", "T2", "T10"}) {
		t.Fatalf("tables = %v", got)
	}
	if sel.Count() != 0 {
		t.Fatal("selection not cleared")
	}
}

func TestCreateReservationExplicitTables(t *testing.T) {
	fs := &fakeStore{}
	req := validRequest()
	req.SelectedTables = []string{"T3", "KASIR", "T3", "T1"}
	if _, err := NewCoordinator(fs, nil).CreateReservation(context.Background(), req, nil); err != nil {
		t.Fatal(err)
	}
	if got := fs.created[0].SelectedTables; !reflect.DeepEqual(got, []string{"T1", "T3"}) {
		t.Fatalf("tables = %v", got)
	}
}

func TestCreateReservationBackendMessageUnmodified(t *testing.T) {
	fs := &fakeStore{err: errors.New("PERMISSION_DENIED: Missing or insufficient permissions.")}
	sel := selected("T1")
	_, err := NewCoordinator(fs, nil).CreateReservation(context.Background(), validRequest(), sel)
	var be *apperr.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected backend error, got %T", err)
	}
	if err.Error() != "PERMISSION_DENIED: Missing or insufficient permissions." {
		t.Fatalf("message changed: %q", err.Error())
	}
	if fs.calls != 1 {
		t.Fatalf("expected one attempt, got %d", fs.calls)
	}
	if sel.Count() != 1 {
		t.Fatal("selection cleared on backend failure")
	}
}

func TestGetChecksOwner(t *testing.T) {
	fs := &fakeStore{byID: map[string]model.Reservation{"r1": {ID: "r1", UserID: "u1"}}}
	c := NewCoordinator(fs, nil)
	if _, err := c.Get(context.Background(), "r1", "u2"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := c.Get(context.Background(), "nope", "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if r, err := c.Get(context.Background(), "r1", "u1"); err != nil || r.ID != "r1" {
		t.Fatalf("get = %+v, %v", r, err)
	}
}
