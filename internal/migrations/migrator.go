// Package migrations manages the versioned schema of the key/value backend.
// Applied versions are tracked in a schema_migrations table so reopening an
// existing database is cheap and idempotent.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// Migration is a single schema change with up and down functions.
type Migration struct {
	Version int64
	Name    string
	Up      func(*sql.DB) error
	Down    func(*sql.DB) error
}

// Migrator applies registered migrations in version order.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator creates a migrator for the given database handle.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// AddMigration registers a migration, keeping the list sorted by version.
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// RunMigrations applies every registered migration newer than the current
// schema version.
func (m *Migrator) RunMigrations() error {
	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := m.currentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.runMigration(migration); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}
	return nil
}

// GetCurrentVersion returns the highest applied migration version.
func (m *Migrator) GetCurrentVersion() (int64, error) {
	if err := m.createMigrationsTable(); err != nil {
		return 0, err
	}
	return m.currentVersion()
}

// GetMigrations returns all registered migrations.
func (m *Migrator) GetMigrations() []Migration {
	return m.migrations
}

func (m *Migrator) createMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *Migrator) currentVersion() (int64, error) {
	var version int64
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) runMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			_ = rollbackErr
		}
	}()

	if err := migration.Up(m.db); err != nil {
		return err
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name); err != nil {
		return err
	}
	return tx.Commit()
}
