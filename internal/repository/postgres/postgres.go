// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// It is selected instead of the sqlite package when DATABASE_URL is set.
// Schema and behaviour match the sqlite store: nullable identity columns,
// unique violations surfaced as apperror.ErrConflict, missing rows as
// apperror.ErrNotFound.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/character-studio/internal/apperror"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrEmptyConnectionString    = errors.New("postgres: empty connection string, use DATABASE_URL env var")
	ErrFailedToOpenDBConnection = errors.New("postgres: failed to open db connection")
)

// Config controls pool sizing and startup retries.
type Config struct {
	ConnectionString string
	MaxConns         int32
	RetryAttempts    int
	RetryInterval    time.Duration
}

// DB owns the pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects with retry and applies migrations.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

// connect backs off linearly between attempts so a database that is still
// starting (docker compose, CI) gets a chance to come up.
func connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	var lastErr error
	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// migrate bridges the pgx pool to database/sql, which goose requires.
func (db *DB) migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Users() *UserDB {
	return &UserDB{pool: db.pool}
}

func (db *DB) Characters() *CharacterDB {
	return &CharacterDB{pool: db.pool}
}

// isNotFound detects pgx.ErrNoRows.
func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// duplicateKeyConstraint returns the violated constraint name for SQLSTATE
// 23505, or "" for any other error.
func duplicateKeyConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "" {
			return "unknown"
		}
		return pgErr.ConstraintName
	}
	return ""
}

// conflictFor mirrors the sqlite store: users_email_key → "Already exists email".
func conflictFor(err error) *apperror.AppError {
	switch name := duplicateKeyConstraint(err); name {
	case "":
		return nil
	case "users_email_key":
		return apperror.Conflict("Already exists email")
	case "users_line_id_key":
		return apperror.Conflict("Already exists line_id")
	case "users_kakao_id_key":
		return apperror.Conflict("Already exists kakao_id")
	default:
		return apperror.Conflict("Already exists " + name)
	}
}
