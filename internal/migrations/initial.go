package migrations

import (
	"database/sql"
)

// GetInitialMigrations returns the migrations that create the key/value
// schema: a kv table for single-valued keys and a kv_set_members table for
// set membership (the flights:all inventory).
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_kv_tables",
			Up: func(db *sql.DB) error {
				_, err := db.Exec(`
					CREATE TABLE IF NOT EXISTS kv (
						key TEXT PRIMARY KEY,
						value TEXT NOT NULL,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)
				`)
				if err != nil {
					return err
				}

				_, err = db.Exec(`
					CREATE TABLE IF NOT EXISTS kv_set_members (
						set_key TEXT NOT NULL,
						member TEXT NOT NULL,
						PRIMARY KEY (set_key, member)
					)
				`)
				return err
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec(`DROP TABLE IF EXISTS kv_set_members`)
				if err != nil {
					return err
				}
				_, err = db.Exec(`DROP TABLE IF EXISTS kv`)
				return err
			},
		},
	}
}

// GetPerformanceMigrations returns index migrations applied after the
// initial schema.
func GetPerformanceMigrations() []Migration {
	return []Migration{
		{
			Version: 10,
			Name:    "add_performance_indices",
			Up: func(db *sql.DB) error {
				indices := []string{
					"CREATE INDEX IF NOT EXISTS idx_kv_set_members_set_key ON kv_set_members(set_key)",
				}
				for _, indexSQL := range indices {
					if _, err := db.Exec(indexSQL); err != nil {
						return err
					}
				}
				return nil
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec("DROP INDEX IF EXISTS idx_kv_set_members_set_key")
				return err
			},
		},
	}
}
