package core

import (
	"context"
	"fmt"
	"usercore/internal/config"
	"usercore/internal/infra/persistence/memory"
	"usercore/internal/infra/persistence/postgres"
	"usercore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete data context implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// TrackedContext is a DataContext that also reports commit bookkeeping. All
// bundled implementations satisfy it.
type TrackedContext interface {
	DataContext
	LastResult() Result
	SaveCount() int
}

var (
	_ TrackedContext = (*memory.Context)(nil)
	_ TrackedContext = (*sqlite.Context)(nil)
	_ TrackedContext = (*postgres.Context)(nil)
)

// OpenDataContext selects a backend from configuration, defaulting to sqlite.
// The returned close function releases the backend's resources.
func OpenDataContext(ctx context.Context, cfg config.Storage, engine *RulesEngine) (TrackedContext, func() error, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewContext(engine), func() error { return nil }, nil
	case StorageSQLite:
		dc, err := sqlite.NewContext(ctx, cfg.SQLitePath, engine)
		if err != nil {
			return nil, nil, err
		}
		return dc, dc.Close, nil
	case StoragePostgres:
		dc, err := postgres.NewContext(ctx, cfg.PostgresDSN, engine)
		if err != nil {
			return nil, nil, err
		}
		return dc, func() error { dc.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
