package testing

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CreateTestDB creates an in-memory SQLite test database with foreign key
// enforcement on, matching the pragmas the real connection layer sets.
// Cleanup is registered via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to apply %q: %v", pragma, err)
		}
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// InsertSession seeds a minimal puzzle_sessions row so tables with a
// foreign key on session_id can be exercised in isolation.
func InsertSession(t *testing.T, db *sql.DB, id string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO puzzle_sessions (id, level_id, fingerprint, grid_rows, grid_cols, created_at, updated_at)
		VALUES (?, 'meadow', 'test-fingerprint', 3, 4, ?, ?)
	`, id, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to seed session %s: %v", id, err)
	}
}
