package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/bitebook/backend/migrations"
)

// NewMigrator builds a goose provider over the embedded migrations for driver
func NewMigrator(driver string, db *sql.DB) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "postgres"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite"
	default:
		return nil, fmt.Errorf("store: no migrations for driver %q", driver)
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("store: migrations dir %s: %w", dir, err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("store: create goose provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending migrations and returns the versions applied
func Migrate(ctx context.Context, driver string, db *sql.DB) ([]int64, error) {
	provider, err := NewMigrator(driver, db)
	if err != nil {
		return nil, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: goose up: %w", err)
	}
	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// OpenMigrator connects to the configured database without migrating it and
// returns a goose provider for inspecting or applying the schema. The close
// func releases the connection.
func OpenMigrator(ctx context.Context, cfg Config) (*goose.Provider, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DSN, false)
		if err != nil {
			return nil, nil, err
		}
		sqlDB := stdlib.OpenDBFromPool(s.pool)
		provider, err := NewMigrator(DriverPostgres, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			_ = s.Close()
			return nil, nil, err
		}
		return provider, func() error {
			_ = sqlDB.Close()
			return s.Close()
		}, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.DSN, false)
		if err != nil {
			return nil, nil, err
		}
		provider, err := NewMigrator(DriverSQLite, s.db)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return provider, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("store: driver %q has no schema to migrate", cfg.Driver)
	}
}
