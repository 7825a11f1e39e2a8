package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/orders"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	contact TEXT NOT NULL,
	property TEXT NOT NULL,
	products TEXT NOT NULL,
	documents TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

const orderColumns = `id, order_number, status, payment_status, contact, property, products, documents, notes, created_at, updated_at`

// SQLiteStore keeps orders in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at cfg.Path.
func NewSQLiteStore(cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, orders.NewStorageError("sqlite", "open", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy == 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, busy.Milliseconds())
	if cfg.WALMode {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, orders.NewStorageError("sqlite", "migrate", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create stores o.
func (s *SQLiteStore) Create(ctx context.Context, o *orders.Order) error {
	b, err := encodeBlobs(o)
	if err != nil {
		return orders.NewStorageError("sqlite", "create", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Number, string(o.Status), string(o.PaymentStatus),
		string(b.contact), string(b.property), string(b.products), string(b.documents),
		o.Notes, o.CreatedAt.UnixNano(), o.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return orders.NewStorageError("sqlite", "create", err)
	}
	return nil
}

// Get returns the order with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*orders.Order, error) {
	return s.getWhere(ctx, s.db, "id = ?", id)
}

// GetByNumber returns the order with the given order number.
func (s *SQLiteStore) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	return s.getWhere(ctx, s.db, "order_number = ?", number)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getWhere(ctx context.Context, q queryer, cond string, arg any) (*orders.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	o, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "get", err)
	}
	return o, nil
}

// List returns matching orders, newest first.
func (s *SQLiteStore) List(ctx context.Context, f orders.Filter) ([]*orders.Order, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = ?")
		args = append(args, string(f.PaymentStatus))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, order_number DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	} else if f.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	list := []*orders.Order{}
	for rows.Next() {
		o, err := scanSQLite(rows)
		if err != nil {
			return nil, orders.NewStorageError("sqlite", "list", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, orders.NewStorageError("sqlite", "list", err)
	}
	return list, nil
}

// Update applies p to the order with id inside a transaction.
func (s *SQLiteStore) Update(ctx context.Context, id string, p orders.Patch, now time.Time) (*orders.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "update", err)
	}
	defer tx.Rollback() //nolint:errcheck

	o, err := s.getWhere(ctx, tx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	o.Apply(p, now)

	b, err := encodeBlobs(o)
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "update", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, payment_status = ?, documents = ?, notes = ?, updated_at = ? WHERE id = ?`,
		string(o.Status), string(o.PaymentStatus), string(b.documents), o.Notes, o.UpdatedAt.UnixNano(), o.ID,
	)
	if err != nil {
		return nil, orders.NewStorageError("sqlite", "update", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, orders.NewStorageError("sqlite", "update", err)
	}
	return o, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (*orders.Order, error) {
	var (
		o                   orders.Order
		status, payment     string
		contact, property   string
		products, documents string
		created, updated    int64
	)
	if err := row.Scan(&o.ID, &o.Number, &status, &payment, &contact, &property, &products, &documents, &o.Notes, &created, &updated); err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	o.PaymentStatus = orders.PaymentStatus(payment)
	o.CreatedAt = time.Unix(0, created).UTC()
	o.UpdatedAt = time.Unix(0, updated).UTC()

	b := blobs{contact: []byte(contact), property: []byte(property), products: []byte(products), documents: []byte(documents)}
	if err := b.decodeInto(&o); err != nil {
		return nil, err
	}
	return &o, nil
}
