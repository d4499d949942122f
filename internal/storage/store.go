package storage

import (
	"context"
	"fmt"

	"oipulse/internal/config"
	"oipulse/pkg/contracts/domain"
)

// TableStore persists the single authoritative derived table. The table
// is always replaced wholesale; there is no row-level mutation.
type TableStore interface {
	// Load reads the full table. A missing backing store yields an empty
	// table, not an error.
	Load(ctx context.Context) (*domain.DerivedTable, error)
	// Replace overwrites the stored table with the given one.
	Replace(ctx context.Context, table *domain.DerivedTable) error
	// Name identifies the backend for log and status messages.
	Name() string
}

// New builds the store selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig) (TableStore, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		return NewCSVStore(cfg.CSVPath), nil
	case config.BackendSheets:
		return NewSheetsStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
