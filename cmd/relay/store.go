package main

import (
	"context"

	"github.com/and161185/relax-alerting/internal/config"
	"github.com/and161185/relax-alerting/storage"
	"github.com/and161185/relax-alerting/storage/inmemory"
	"github.com/and161185/relax-alerting/storage/postgres"
	"github.com/and161185/relax-alerting/storage/sqlite"
)

// openStore picks the settings store: PostgreSQL, then SQLite, then the JSON file.
func openStore(ctx context.Context, cfg *config.RelayConfig) (storage.Storage, string, error) {
	switch {
	case cfg.DatabaseDsn != "":
		s, err := postgres.NewPostgresStorage(ctx, cfg.DatabaseDsn)
		return s, "postgres", err
	case cfg.SQLitePath != "":
		s, err := sqlite.NewSQLiteStorage(ctx, cfg.SQLitePath)
		return s, "sqlite", err
	default:
		s := inmemory.NewMemStorage(cfg.FileStoragePath)
		if err := s.LoadFromFile(ctx, cfg.FileStoragePath); err != nil {
			return nil, "file", err
		}
		return s, "file", nil
	}
}
