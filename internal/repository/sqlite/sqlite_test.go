package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

// newTestDB returns a fresh in-memory database with migrations applied.
// t.Cleanup closes it when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// =========================================================================
// MIGRATION TESTS
// =========================================================================

func TestNew_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"users", "characters"} {
		var name string
		err := db.conn.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after migrations: %v", table, err)
		}
	}
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	// Migrations already applied: the second open must not fail.
	second, err := New(path)
	if err != nil {
		t.Fatalf("New() second open: %v", err)
	}
	defer second.Close()

	if err := second.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
