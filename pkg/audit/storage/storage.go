package storage

import (
	"fmt"

	"grundbuch-online/portal/pkg/audit"
	"grundbuch-online/portal/pkg/config"
)

// New opens the backend named in cfg.Backend.
func New(cfg config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
