package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/reaport/aircraft/internal/migrations"
)

// SQLiteStore implements Store on a SQLite database. Single-key operations
// are serialized by SQLite itself; there is no cross-key transaction, which
// matches the backend contract the repository is written against.
type SQLiteStore struct {
	db    *sql.DB
	cache *preparedStatementCache
}

var _ Store = (*SQLiteStore)(nil)

// New opens (or creates) a SQLite-backed store at the given DSN and runs
// schema migrations.
func New(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an already-configured database handle and runs schema
// migrations. The store takes ownership of the handle; Close closes it.
func NewWithDB(db *sql.DB) (*SQLiteStore, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteStore{
		db:    db,
		cache: newPreparedStatementCache(db),
	}, nil
}

func migrate(db *sql.DB) error {
	migrator := migrations.NewMigrator(db)
	for _, m := range migrations.GetInitialMigrations() {
		migrator.AddMigration(m)
	}
	for _, m := range migrations.GetPerformanceMigrations() {
		migrator.AddMigration(m)
	}
	return migrator.RunMigrations()
}

// Get retrieves the value for key, nil if absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*string, error) {
	stmt, err := s.cache.get("SELECT value FROM kv WHERE key = ?")
	if err != nil {
		return nil, err
	}
	var value string
	err = stmt.QueryRowContext(ctx, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// Set stores value under key, overwriting any existing value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	stmt, err := s.cache.get(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, key, value)
	return err
}

// Delete removes key, reporting whether a row was removed.
func (s *SQLiteStore) Delete(ctx context.Context, key string) (bool, error) {
	stmt, err := s.cache.get("DELETE FROM kv WHERE key = ?")
	if err != nil {
		return false, err
	}
	res, err := stmt.ExecContext(ctx, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddToSet adds member to the named set. Adding an existing member is a no-op.
func (s *SQLiteStore) AddToSet(ctx context.Context, set, member string) error {
	stmt, err := s.cache.get("INSERT OR IGNORE INTO kv_set_members (set_key, member) VALUES (?, ?)")
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, set, member)
	return err
}

// RemoveFromSet removes member from the named set.
func (s *SQLiteStore) RemoveFromSet(ctx context.Context, set, member string) (bool, error) {
	stmt, err := s.cache.get("DELETE FROM kv_set_members WHERE set_key = ? AND member = ?")
	if err != nil {
		return false, err
	}
	res, err := stmt.ExecContext(ctx, set, member)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetMembers returns all members of the named set, ordered by member.
func (s *SQLiteStore) SetMembers(ctx context.Context, set string) ([]string, error) {
	stmt, err := s.cache.get("SELECT member FROM kv_set_members WHERE set_key = ? ORDER BY member ASC")
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, set)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Close closes cached statements and the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.cache.close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}
