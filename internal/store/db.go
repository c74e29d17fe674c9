package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite-backed handle opened against a single file. Schema
// mutation always goes through a single write connection, the same
// single-writer discipline the manifest catalog uses. DB holds no other
// connection or pool; the schema engine itself only ever calls Begin.
type DB struct {
	write *sql.DB
}

// Open opens (creating if absent) a SQLite database at path, configured
// for WAL journaling and a single writer connection.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, createSidecarTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: bootstrap sidecar tables: %w", err)
	}
	return &DB{write: db}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error { return d.write.Close() }

// Begin starts a write transaction and returns it as the Transaction the
// schema engine operates against. Callers must Commit or Rollback.
func (d *DB) Begin(ctx context.Context) (*Txn, error) {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	return &Txn{tx: tx, logger: noopLogger{}}, nil
}

// SQL exposes the underlying (single, write) connection for packages,
// such as internal/metadata, that maintain their own
// sidecar-free bookkeeping tables alongside the engine's. They are
// expected to use their own table names and never touch
// __arkilian_tables/__arkilian_properties directly.
func (d *DB) SQL() *sql.DB { return d.write }

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
