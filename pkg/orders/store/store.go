package store

import (
	"context"
	"fmt"

	"grundbuch-online/portal/pkg/config"
	"grundbuch-online/portal/pkg/orders"
)

// New opens the backend named in cfg.Backend.
func New(ctx context.Context, cfg config.OrdersConfig) (orders.Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return NewSQLiteStore(cfg.SQLite)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown orders backend %q", cfg.Backend)
	}
}

func paginate(list []*orders.Order, f orders.Filter) []*orders.Order {
	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return []*orders.Order{}
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(list) {
		list = list[:f.Limit]
	}
	return list
}
