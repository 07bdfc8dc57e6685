package cart

import (
	"context"
	"sync"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

type cartKey struct{ user, cafe string }

// Memory is an in-process cart store.
type Memory struct {
	mu    sync.Mutex
	carts map[cartKey][]model.OrderLine
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{carts: make(map[cartKey][]model.OrderLine)}
}

func (m *Memory) Add(ctx context.Context, userID string, line model.OrderLine) error {
	if err := validateLine(userID, line); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cartKey{userID, line.CafeID}
	lines := m.carts[k]
	for i := range lines {
		if lines[i].MenuItemID == line.MenuItemID {
			lines[i].Quantity += line.Quantity
			lines[i].UnitPrice = line.UnitPrice
			lines[i].Name = line.Name
			return nil
		}
	}
	m.carts[k] = append(lines, line)
	return nil
}

func (m *Memory) SetQuantity(ctx context.Context, userID, cafeID, menuItemID string, qty int) error {
	if qty < 0 {
		return apperr.Invalid("quantity", "must not be negative")
	}
	if qty == 0 {
		return m.Remove(ctx, userID, cafeID, menuItemID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.carts[cartKey{userID, cafeID}]
	for i := range lines {
		if lines[i].MenuItemID == menuItemID {
			lines[i].Quantity = qty
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *Memory) Remove(ctx context.Context, userID, cafeID, menuItemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cartKey{userID, cafeID}
	lines := m.carts[k]
	for i := range lines {
		if lines[i].MenuItemID == menuItemID {
			m.carts[k] = append(lines[:i:i], lines[i+1:]...)
			if len(m.carts[k]) == 0 {
				delete(m.carts, k)
			}
			return nil
		}
	}
	return nil
}

func (m *Memory) Lines(ctx context.Context, userID, cafeID string) ([]model.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderLine{}, m.carts[cartKey{userID, cafeID}]...), nil
}

func (m *Memory) ClearCafe(ctx context.Context, userID, cafeID string) error {
	m.mu.Lock()
	delete(m.carts, cartKey{userID, cafeID})
	m.mu.Unlock()
	return nil
}
