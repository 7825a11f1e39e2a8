package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Kind is the downstream side effect of a task.
type Kind string

const (
	KindEmail   Kind = "email"
	KindInvoice Kind = "invoice"
)

// Kinds lists the tasks created for every new order.
var Kinds = []Kind{KindEmail, KindInvoice}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindEmail || k == KindInvoice
}

// Status is the delivery state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Task is one outbox entry.
type Task struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	NextAttempt time.Time       `json:"next_attempt"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IdempotencyKey is sent downstream so receivers can drop duplicates.
func (t *Task) IdempotencyKey() string {
	return t.OrderNumber
}

// ErrTaskNotFound is returned by Outbox.Get for unknown tasks.
var ErrTaskNotFound = errors.New("dispatch task not found")

// Outbox persists tasks.
type Outbox interface {
	// Enqueue inserts t unless a task for the same order and kind exists.
	// It reports whether t was inserted.
	Enqueue(ctx context.Context, t *Task) (bool, error)

	// Due returns pending tasks whose next attempt is at or before now,
	// oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*Task, error)

	// Get returns the task for an order and kind.
	Get(ctx context.Context, orderNumber string, kind Kind) (*Task, error)

	// Save writes the delivery state of t.
	Save(ctx context.Context, t *Task) error

	Close() error
}
