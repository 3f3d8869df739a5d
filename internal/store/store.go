package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Observer receives store lifecycle signals. metrics.Manager implements it.
type Observer interface {
	TransactionFinished(scope string, committed bool, elapsed time.Duration)
	MigrationApplied(version int)
	SchemaVersion(version int)
}

// NopObserver discards every signal.
type NopObserver struct{}

func (NopObserver) TransactionFinished(string, bool, time.Duration) {}
func (NopObserver) MigrationApplied(int)                           {}
func (NopObserver) SchemaVersion(int)                              {}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration and transaction messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithMigrations replaces the schema history. Used by tests that simulate an
// older binary opening the file first.
func WithMigrations(ms []Migration) Option {
	return func(s *Store) {
		s.migrations = ms
	}
}

// Store is the schema-versioned local record store.
// Uses SQLite with WAL mode and a single connection, so every transaction is
// serialized through one writer.
type Store struct {
	db         *sql.DB
	log        *slog.Logger
	obs        Observer
	migrations []Migration
	defs       map[Collection]CollectionDef
	ops
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and every pending schema step before returning;
// no read or write is possible on a store whose migrations failed.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Opening a store that is already at the current version applies nothing.
func Open(path string, opts ...Option) (*Store, error) {
	return OpenContext(context.Background(), path, opts...)
}

// OpenContext is Open with a caller-supplied context for the migration run.
func OpenContext(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		log:        slog.Default(),
		obs:        NopObserver{},
		migrations: Migrations,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.defs = catalog(s.migrations)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s.db = db
	s.ops = ops{q: db, defs: s.defs}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
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

// Version returns the schema version recorded in the database file.
func (s *Store) Version(ctx context.Context) (int, error) {
	return readVersion(ctx, s.db)
}

// Definition returns the storage definition of a collection.
func (s *Store) Definition(c Collection) (CollectionDef, bool) {
	d, ok := s.defs[c]
	return d, ok
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
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
