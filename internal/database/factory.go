package database

import (
	"fmt"
	"path/filepath"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/config"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
)

// DatabaseFileName is the fixed name of the SQLite file under data_dir.
const DatabaseFileName = "dupescan.db"

// NewStoreFromConfig creates a Store implementation based on the database
// config type. The "memory" type is migrated on open since nothing persists.
func NewStoreFromConfig(cfg config.DatabaseConfig) (dedupe.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		dbPath := filepath.Join(cfg.DataDir, DatabaseFileName)
		return NewSQLiteStore(dbPath)
	case "memory":
		store, err := NewSQLiteStore(":memory:")
		if err != nil {
			return nil, err
		}
		if err := store.MigrateUp(); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
