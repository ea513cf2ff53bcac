// Package databasetest provides migrated SQLite databases for tests.
package databasetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"schoolrecords/internal/database"
)

// NewSQLite migrates a fresh database file under t.TempDir and opens it.
// The handle is closed on test cleanup.
func NewSQLite(t testing.TB) (*sql.DB, database.Config) {
	t.Helper()

	cfg := database.DefaultConfig()
	cfg.Driver = database.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "records.db")
	cfg.QueryTimeout = 5 * time.Second
	cfg.MaxOpenConns = 4

	logger := zaptest.NewLogger(t)
	ctx := context.Background()
	if err := database.Migrate(ctx, cfg, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, cfg
}
