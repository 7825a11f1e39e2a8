package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grundbuch-online/portal/pkg/orders"
)

// MemoryStore keeps orders in a map. Returned orders are copies.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*orders.Order
	byNumber map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*orders.Order),
		byNumber: make(map[string]string),
	}
}

// Create stores o.
func (m *MemoryStore) Create(ctx context.Context, o *orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[o.ID]; exists {
		return orders.NewStorageError("memory", "create", fmt.Errorf("duplicate id %s", o.ID))
	}
	if _, exists := m.byNumber[o.Number]; exists {
		return orders.NewStorageError("memory", "create", fmt.Errorf("duplicate order number %s", o.Number))
	}
	m.byID[o.ID] = o.Clone()
	m.byNumber[o.Number] = o.ID
	return nil
}

// Get returns the order with id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*orders.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o.Clone(), nil
}

// GetByNumber returns the order with the given order number.
func (m *MemoryStore) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	m.mu.RLock()
	id, ok := m.byNumber[number]
	m.mu.RUnlock()
	if !ok {
		return nil, orders.ErrNotFound
	}
	return m.Get(ctx, id)
}

// List returns matching orders, newest first.
func (m *MemoryStore) List(ctx context.Context, f orders.Filter) ([]*orders.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*orders.Order, 0, len(m.byID))
	for _, o := range m.byID {
		if f.Matches(o) {
			list = append(list, o.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Number > list[j].Number
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return paginate(list, f), nil
}

// Update applies p to the order with id.
func (m *MemoryStore) Update(ctx context.Context, id string, p orders.Patch, now time.Time) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	o.Apply(p, now)
	return o.Clone(), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
