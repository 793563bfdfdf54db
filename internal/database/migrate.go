package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrateUp runs all pending versioned migrations from the embedded FS.
// Migration files follow the pattern VERSION_name.up.sql / VERSION_name.down.sql.
// Returns nil when there are no new migrations to apply.
func (d *DB) MigrateUp(migrationsFS embed.FS, path string) error {
	m, err := d.newMigrator(migrationsFS, path)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	d.log.Info("Database migrations applied")
	return nil
}

func (d *DB) newMigrator(migrationsFS embed.FS, path string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, path)
	if err != nil {
		return nil, fmt.Errorf("migrate: open source: %w", err)
	}

	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("migrate: underlying sql.DB: %w", err)
	}

	driver, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrate: sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate: init: %w", err)
	}
	return m, nil
}
