package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Record is one gateway call.
type Record struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`

	Action      string `json:"action"`
	Environment string `json:"environment"`

	RequestTime time.Time     `json:"request_time"`
	Duration    time.Duration `json:"duration"`

	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Outcome string `json:"outcome"` // "ok" or the failure kind

	RequestHash  string `json:"request_hash"`
	ResponseHash string `json:"response_hash"`

	RemoteAddr string `json:"remote_addr"`
	Error      string `json:"error,omitempty"`
}

// Query filters records.
type Query struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Action      string `json:"action,omitempty"`
	Environment string `json:"environment,omitempty"`
	Success     *bool  `json:"success,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" on request_time. Default: "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Validate rejects inconsistent filters.
func (q *Query) Validate() error {
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start_time %s is after end_time %s",
			q.StartTime.Format(time.RFC3339), q.EndTime.Format(time.RFC3339)))
	}
	if q.Limit < 0 || q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("limit and offset must not be negative"))
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return NewQueryError(q, fmt.Errorf("sort_order must be asc or desc, got %q", q.SortOrder))
	}
	return nil
}

// Matches reports whether r satisfies the filters of q. Pagination is ignored.
func (q *Query) Matches(r *Record) bool {
	if q.StartTime != nil && r.RequestTime.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.RequestTime.After(*q.EndTime) {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.Environment != "" && r.Environment != q.Environment {
		return false
	}
	if q.Success != nil && r.Success != *q.Success {
		return false
	}
	return true
}

// Storage persists audit records. Implementations must be safe for
// concurrent use.
type Storage interface {
	Store(ctx context.Context, record *Record) error

	// Query returns matching records. An empty result is not an error.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	Close() error
}

// Exporter renders records in some output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
