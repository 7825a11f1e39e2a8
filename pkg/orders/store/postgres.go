package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/orders"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	contact JSONB NOT NULL,
	property JSONB NOT NULL,
	products JSONB NOT NULL,
	documents JSONB NOT NULL DEFAULT '[]'::jsonb,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

// PostgresStore keeps orders in a hosted Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to cfg.DSN and creates the schema.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "open", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, orders.NewStorageError("postgres", "ping", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, orders.NewStorageError("postgres", "migrate", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Create stores o.
func (s *PostgresStore) Create(ctx context.Context, o *orders.Order) error {
	b, err := encodeBlobs(o)
	if err != nil {
		return orders.NewStorageError("postgres", "create", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11)`,
		o.ID, o.Number, string(o.Status), string(o.PaymentStatus),
		string(b.contact), string(b.property), string(b.products), string(b.documents),
		o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return orders.NewStorageError("postgres", "create", err)
	}
	return nil
}

// Get returns the order with id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*orders.Order, error) {
	return s.getWhere(ctx, s.pool, "id = $1", id)
}

// GetByNumber returns the order with the given order number.
func (s *PostgresStore) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	return s.getWhere(ctx, s.pool, "order_number = $1", number)
}

type pgQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) getWhere(ctx context.Context, q pgQueryer, cond string, arg any) (*orders.Order, error) {
	o, err := scanPostgres(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, orders.NewStorageError("postgres", "get", err)
	}
	return o, nil
}

// List returns matching orders, newest first.
func (s *PostgresStore) List(ctx context.Context, f orders.Filter) ([]*orders.Order, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, string(f.PaymentStatus))
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, order_number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "list", err)
	}
	defer rows.Close()

	list := []*orders.Order{}
	for rows.Next() {
		o, err := scanPostgres(rows)
		if err != nil {
			return nil, orders.NewStorageError("postgres", "list", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, orders.NewStorageError("postgres", "list", err)
	}
	return list, nil
}

// Update applies p to the order with id, locking the row for the
// duration of the transaction.
func (s *PostgresStore) Update(ctx context.Context, id string, p orders.Patch, now time.Time) (*orders.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "update", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	o, err := s.getWhere(ctx, tx, "id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	o.Apply(p, now)

	b, err := encodeBlobs(o)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "update", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, payment_status = $2, documents = $3::jsonb, notes = $4, updated_at = $5 WHERE id = $6`,
		string(o.Status), string(o.PaymentStatus), string(b.documents), o.Notes, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return nil, orders.NewStorageError("postgres", "update", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, orders.NewStorageError("postgres", "update", err)
	}
	return o, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgres(row pgx.Row) (*orders.Order, error) {
	var (
		o                   orders.Order
		status, payment     string
		contact, property   []byte
		products, documents []byte
	)
	if err := row.Scan(&o.ID, &o.Number, &status, &payment, &contact, &property, &products, &documents, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	o.PaymentStatus = orders.PaymentStatus(payment)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	b := blobs{contact: contact, property: property, products: products, documents: documents}
	if err := b.decodeInto(&o); err != nil {
		return nil, err
	}
	return &o, nil
}
