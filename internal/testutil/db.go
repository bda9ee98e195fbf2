package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupTestDB opens an in-memory test database and returns it with a cleanup
// function.
func SetupTestDB(t *testing.T, testName string) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup
}
