package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ombu/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version.
// 1: ledger, groups, posts, vote flags and the event log.
const schemaVersion = 1

var pragmas = []string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
}

// Store is a storage.Storage on SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// Open opens the forum database at path, creating and migrating it as needed.
// ":memory:" gives a database that lives as long as the Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One connection: SQLite has a single writer, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			return fmt.Errorf("pragma %s: %w", p, err)
		}
	}
	return migrate(db)
}

// migrate applies the idempotent schema and stamps the version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(storage.Reader) error) error {
	return s.inTx(ctx, "view", &sql.TxOptions{ReadOnly: true}, func(t *txn) error {
		return fn(t)
	})
}

// Update runs fn in a read-write transaction and commits only if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(storage.Writer) error) error {
	return s.inTx(ctx, "update", nil, func(t *txn) error {
		if err := fn(t); err != nil {
			return err
		}
		if err := t.tx.Commit(); err != nil {
			return fmt.Errorf("update: commit: %w", err)
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, op string, opts *sql.TxOptions, fn func(*txn) error) error {
	if s.db == nil {
		return storage.ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()
	return fn(&txn{ctx: ctx, tx: tx})
}

// pragma returns the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return value, nil
}
