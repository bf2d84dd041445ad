// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// SQLite is the default store: it needs no server, so `go run ./cmd/server`
// works on a fresh checkout and tests can use ":memory:". Production
// deployments set DATABASE_URL and use the postgres package instead; both
// packages implement the same repository interfaces.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// MIGRATIONS:
// Schema changes live in migrations/*.sql, embedded into the binary and
// applied by goose on startup. goose records applied versions in its own
// table, so New is safe to call against an existing database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/character-studio/internal/apperror"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool. Per-table operations hang off the
// Users() and Characters() views so method names don't collide.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and applies migrations.
//
// dbPath examples:
//   - "data/app.db"  → file-based database (persistent)
//   - ":memory:"     → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	// PRAGMAs in the DSN apply to every pooled connection, not just the first.
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand new, empty database.
	// Pinning the pool to one connection keeps the schema visible to all queries.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. characters.creator_id relies on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the user table view.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Characters returns the character table view.
func (db *DB) Characters() *CharacterDB {
	return &CharacterDB{conn: db.conn}
}

func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// uniqueViolation returns the "table.column" named by a UNIQUE constraint
// failure, or "" if err is not one.
func uniqueViolation(err error) string {
	var se *msqlite.Error
	if !errors.As(err, &se) || se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return ""
	}
	// message: "constraint failed: UNIQUE constraint failed: users.email (2067)"
	const marker = "UNIQUE constraint failed: "
	msg := se.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return "unknown"
	}
	col := msg[i+len(marker):]
	if j := strings.IndexAny(col, " ,"); j >= 0 {
		col = col[:j]
	}
	return col
}

// conflictFor maps a unique violation on the users table to a client-facing
// message. Returns nil when err is not a unique violation.
func conflictFor(err error) *apperror.AppError {
	switch col := uniqueViolation(err); col {
	case "":
		return nil
	case "users.email":
		return apperror.Conflict("Already exists email")
	default:
		return apperror.Conflict("Already exists " + strings.TrimPrefix(col, "users."))
	}
}
