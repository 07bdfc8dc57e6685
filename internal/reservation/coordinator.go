// Package reservation creates reservation records from a finished table
// selection.
package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/availability"
	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// Request carries the party details of a new reservation. When
// SelectedTables is empty the tables come from the selection state passed
// to CreateReservation.
type Request struct {
	CafeID         string   `json:"cafeId"`
	CafeName       string   `json:"cafeName"`
	UserID         string   `json:"userId"`
	UserName       string   `json:"userName"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	TotalGuests    int      `json:"totalGuests"`
	SelectedTables []string `json:"selectedTables"`
}

// Coordinator validates requests and appends reservations to the store.
type Coordinator struct {
	store store.ReservationStore
	log   *slog.Logger
}

// NewCoordinator returns a Coordinator writing to s.
func NewCoordinator(s store.ReservationStore, log *slog.Logger) *Coordinator {
	return &Coordinator{store: s, log: logging.OrDiscard(log)}
}

// CreateReservation validates req, writes exactly one reservation and
// clears sel on success. Validation failures return a ValidationError
// before the store is touched; store failures return a BackendError
// carrying the store's message. Nothing is retried.
func (c *Coordinator) CreateReservation(ctx context.Context, req Request, sel *selection.State) (string, error) {
	req = normalizeRequest(req, sel)
	if err := Validate(req, sel); err != nil {
		return "", err
	}

	created, err := c.store.CreateReservation(ctx, model.Reservation{
		CafeID:         req.CafeID,
		CafeName:       req.CafeName,
		UserID:         req.UserID,
		UserName:       req.UserName,
		Date:           req.Date,
		Time:           req.Time,
		TotalGuests:    req.TotalGuests,
		SelectedTables: req.SelectedTables,
	})
	if err != nil {
		c.log.Warn("create reservation failed", "cafe_id", req.CafeID, "user_id", req.UserID, "err", err)
		return "", apperr.Backend("create reservation", err)
	}
	if sel != nil {
		sel.Clear()
	}
	c.log.Info("reservation created",
		"reservation_id", created.ID,
		"cafe_id", created.CafeID,
		"tables", created.SelectedTables,
		"guests", created.TotalGuests,
	)
	return created.ID, nil
}

func normalizeRequest(req Request, sel *selection.State) Request {
	req.CafeID = strings.TrimSpace(req.CafeID)
	req.UserName = strings.TrimSpace(req.UserName)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	tables := req.SelectedTables
	if len(tables) == 0 && sel != nil {
		tables = sel.Selected()
	}
	seen := make(map[string]struct{}, len(tables))
	uniq := make([]string, 0, len(tables))
	for _, id := range availability.FilterSeatIDs(tables) {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	req.SelectedTables = selection.SortTableIDs(uniq)
	return req
}

// Validate checks a normalised request without side effects.
func Validate(req Request, sel *selection.State) error {
	switch {
	case req.CafeID == "":
		return apperr.Required("cafeId")
	case req.UserName == "":
		return apperr.Required("userName")
	case req.Date == "":
		return apperr.Required("date")
	case req.Time == "":
		return apperr.Required("time")
	case req.TotalGuests <= 0:
		return apperr.Invalid("totalGuests", "must be positive")
	case len(req.SelectedTables) == 0:
		return apperr.Invalid("selectedTables", "select at least one table")
	}
	if sel != nil && sel.CafeID() != "" && sel.CafeID() != req.CafeID {
		return apperr.Invalid("cafeId", "selection belongs to another cafe")
	}
	return nil
}

// Get returns reservation id when it belongs to userID.
func (c *Coordinator) Get(ctx context.Context, id, userID string) (model.Reservation, error) {
	r, err := c.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Reservation{}, err
		}
		return model.Reservation{}, apperr.Backend("load reservation", err)
	}
	if r.UserID != userID {
		return model.Reservation{}, apperr.ErrForbidden
	}
	return r, nil
}

// ListByUser returns the reservations of userID, newest first.
func (c *Coordinator) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	list, err := c.store.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Backend("list reservations", err)
	}
	return list, nil
}
