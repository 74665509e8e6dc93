package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/kitties/internal/migration"
	"github.com/roach88/kitties/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// ErrNeedsMigration is returned by Begin when the stored layout is not current.
var ErrNeedsMigration = errors.New("stored record layout needs migration")

// Store is the durable registry backend.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ state.Backend = (*Store)(nil)

type options struct {
	migrate bool
	logger  *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithoutMigration leaves an older layout in place. Begin then fails with
// ErrNeedsMigration until Migrate is called.
func WithoutMigration() Option {
	return func(o *options) { o.migrate = false }
}

// WithLogger sets the logger used to report migrations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open creates or opens a registry database at path.
// Applies pragmas and schema, then migrates the record layout.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{migrate: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, logger: o.logger}
	if o.migrate {
		rep, err := s.Migrate(context.Background())
		if err != nil {
			db.Close()
			return nil, err
		}
		if rep.Upgraded() {
			s.logger.Info("record layout migrated",
				"from", rep.From.String(),
				"to", rep.To.String(),
				"records", rep.Records,
				"reads", rep.Weight.Reads,
				"writes", rep.Weight.Writes,
			)
		}
	}
	return s, nil
}

// OpenDB opens a SQLite database with the registry's connection settings
// and no schema. Other ledgers kept in their own files use it too.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Version returns the stored record layout version.
func (s *Store) Version(ctx context.Context) (migration.Version, error) {
	return readVersion(ctx, s.db)
}

// Begin opens a transaction. Fails with ErrNeedsMigration when the stored
// layout is not current.
func (s *Store) Begin(ctx context.Context) (state.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	v, err := readVersion(ctx, tx)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("begin: %w", err)
	}
	if v != migration.Current {
		tx.Rollback()
		return nil, fmt.Errorf("%w: stored %s, current %s", ErrNeedsMigration, v, migration.Current)
	}
	return &sqlTx{tx: tx}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readVersion(ctx context.Context, q queryRower) (migration.Version, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return migration.Version(v), nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
