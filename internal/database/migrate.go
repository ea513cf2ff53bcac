package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

// Migrate brings the schema up to date on its own connection, which it
// closes before returning.
func Migrate(ctx context.Context, cfg Config, logger *zap.Logger) error {
	return run(ctx, cfg, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateTo moves the schema up or down to version.
func MigrateTo(ctx context.Context, cfg Config, logger *zap.Logger, version uint) error {
	return run(ctx, cfg, logger, func(m *migrate.Migrate) error { return m.Migrate(version) })
}

func run(ctx context.Context, cfg Config, logger *zap.Logger, step func(*migrate.Migrate) error) error {
	db, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var driver migratedb.Driver
	switch cfg.Driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		err = fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		db.Close()
		return fmt.Errorf("database: migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+cfg.Driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.Driver, driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: migrate init: %w", err)
	}
	defer m.Close()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: migrate: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("database: migrate version: %w", err)
	}
	if logger != nil {
		logger.Info("Schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
