package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/core/store"
)

// openStore opens the payload cache database and applies the schema.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

// getDBPath returns the resolved database location for display.
func getDBPath(cfg *config.Config) string {
	if cfg == nil {
		return config.DefaultStorePath()
	}
	if cfg.Store.URL != "" {
		return cfg.Store.URL
	}
	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = config.DefaultStorePath()
	}
	if absPath, err := filepath.Abs(dbPath); err == nil {
		return absPath
	}
	return dbPath
}
