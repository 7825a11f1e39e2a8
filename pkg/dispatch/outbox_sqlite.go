package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"grundbuch-online/portal/pkg/config"
)

const outboxSchema = `
CREATE TABLE IF NOT EXISTS dispatch_tasks (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload BLOB NOT NULL,
	status TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	next_attempt INTEGER NOT NULL,
	last_error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (order_number, kind)
);

CREATE INDEX IF NOT EXISTS idx_dispatch_due ON dispatch_tasks(status, next_attempt);
`

const taskColumns = `id, order_number, kind, payload, status, attempts, next_attempt, last_error, created_at, updated_at`

// SQLiteOutbox persists tasks in a local SQLite file so pending deliveries
// survive restarts.
type SQLiteOutbox struct {
	db *sql.DB
}

// NewSQLiteOutbox opens (and if needed creates) the outbox at cfg.Path.
func NewSQLiteOutbox(cfg config.SQLiteConfig) (*SQLiteOutbox, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory: %w", err)
	}

	busy := cfg.BusyTimeout
	if busy == 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, busy.Milliseconds())
	if cfg.WALMode {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports a single writer

	if _, err := db.Exec(outboxSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize outbox schema: %w", err)
	}
	return &SQLiteOutbox{db: db}, nil
}

// Enqueue inserts t unless the (order, kind) pair exists.
func (s *SQLiteOutbox) Enqueue(ctx context.Context, t *Task) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatch_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_number, kind) DO NOTHING`,
		t.ID, t.OrderNumber, string(t.Kind), []byte(t.Payload), string(t.Status), t.Attempts,
		t.NextAttempt.UnixNano(), t.LastError, t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to enqueue task: %w", err)
	}
	return n == 1, nil
}

// Due returns pending tasks due at now, oldest first.
func (s *SQLiteOutbox) Due(ctx context.Context, now time.Time, limit int) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM dispatch_tasks
		WHERE status = ? AND next_attempt <= ?
		ORDER BY next_attempt ASC, id ASC`
	args := []any{string(StatusPending), now.UnixNano()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	var due []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		due = append(due, t)
	}
	return due, rows.Err()
}

// Get returns the task for an order and kind.
func (s *SQLiteOutbox) Get(ctx context.Context, orderNumber string, kind Kind) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM dispatch_tasks WHERE order_number = ? AND kind = ?`,
		orderNumber, string(kind))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Save writes the delivery state of t.
func (s *SQLiteOutbox) Save(ctx context.Context, t *Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dispatch_tasks SET status = ?, attempts = ?, next_attempt = ?, last_error = ?, updated_at = ?
		 WHERE order_number = ? AND kind = ?`,
		string(t.Status), t.Attempts, t.NextAttempt.UnixNano(), t.LastError, t.UpdatedAt.UnixNano(),
		t.OrderNumber, string(t.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteOutbox) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t                      Task
		kind, status           string
		payload                []byte
		next, created, updated int64
	)
	if err := row.Scan(&t.ID, &t.OrderNumber, &kind, &payload, &status, &t.Attempts, &next, &t.LastError, &created, &updated); err != nil {
		return nil, err
	}
	t.Kind = Kind(kind)
	t.Status = Status(status)
	t.Payload = payload
	t.NextAttempt = time.Unix(0, next).UTC()
	t.CreatedAt = time.Unix(0, created).UTC()
	t.UpdatedAt = time.Unix(0, updated).UTC()
	return &t, nil
}

// NewOutbox opens the backend named in cfg.Backend.
func NewOutbox(cfg config.DispatchConfig) (Outbox, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryOutbox(), nil
	case "sqlite", "":
		return NewSQLiteOutbox(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown dispatch backend %q", cfg.Backend)
	}
}
