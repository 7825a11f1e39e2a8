package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryOutbox keeps tasks in memory. Tasks are lost on restart.
type MemoryOutbox struct {
	mu    sync.Mutex
	tasks map[string]*Task // keyed by order number + kind
}

// NewMemoryOutbox creates an empty MemoryOutbox.
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{tasks: make(map[string]*Task)}
}

func taskKey(orderNumber string, kind Kind) string {
	return orderNumber + "/" + string(kind)
}

// Enqueue inserts t unless the (order, kind) pair exists.
func (m *MemoryOutbox) Enqueue(ctx context.Context, t *Task) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := taskKey(t.OrderNumber, t.Kind)
	if _, exists := m.tasks[key]; exists {
		return false, nil
	}
	c := *t
	m.tasks[key] = &c
	return true, nil
}

// Due returns pending tasks due at now, oldest first.
func (m *MemoryOutbox) Due(ctx context.Context, now time.Time, limit int) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Task
	for _, t := range m.tasks {
		if t.Status == StatusPending && !t.NextAttempt.After(now) {
			c := *t
			due = append(due, &c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextAttempt.Equal(due[j].NextAttempt) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextAttempt.Before(due[j].NextAttempt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Get returns a copy of the task for an order and kind.
func (m *MemoryOutbox) Get(ctx context.Context, orderNumber string, kind Kind) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskKey(orderNumber, kind)]
	if !ok {
		return nil, ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

// Save writes the delivery state of t.
func (m *MemoryOutbox) Save(ctx context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := taskKey(t.OrderNumber, t.Kind)
	if _, ok := m.tasks[key]; !ok {
		return ErrTaskNotFound
	}
	c := *t
	m.tasks[key] = &c
	return nil
}

// Close is a no-op.
func (m *MemoryOutbox) Close() error {
	return nil
}
