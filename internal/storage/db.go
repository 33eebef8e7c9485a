// Package storage provides the SQLite cache that keeps the last good copy
// of every knowledge table, so the service can start without its remote
// sources.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// DB wraps the SQLite database connections.
// Writes go through a single connection; reads use a small pool.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	path   string
}

// Options tunes connection behavior.
type Options struct {
	BusyTimeout     time.Duration
	ConnMaxLifetime time.Duration
}

func (o Options) withDefaults() Options {
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 5 * time.Second
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = time.Hour
	}
	return o
}

// New opens (creating if needed) the cache database at dbPath and
// initializes the schema. dbPath may be ":memory:".
func New(ctx context.Context, dbPath string, opts Options) (*DB, error) {
	opts = opts.withDefaults()

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := buildDSN(dbPath, opts.BusyTimeout)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent table saves.
	writer.SetMaxOpenConns(1)
	writer.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := configureConnection(ctx, writer, dbPath != ":memory:"); err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err := InitSchema(ctx, writer); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// An in-memory database is private to its connection, so reads must
	// share the writer.
	reader := writer
	if dbPath != ":memory:" {
		reader, err = sql.Open("sqlite", dsn)
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to open reader: %w", err)
		}
		reader.SetMaxOpenConns(4)
		reader.SetMaxIdleConns(2)
		reader.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	db := &DB{writer: writer, reader: reader, path: dbPath}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func buildDSN(dbPath string, busy time.Duration) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", dbPath, busy.Milliseconds())
}

func configureConnection(ctx context.Context, conn *sql.DB, wal bool) error {
	pragmas := []string{"PRAGMA synchronous=NORMAL"}
	if wal {
		pragmas = append([]string{"PRAGMA journal_mode=WAL"}, pragmas...)
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connections.
func (db *DB) Close() error {
	var err error
	if db.reader != nil && db.reader != db.writer {
		err = db.reader.Close()
	}
	if db.writer != nil {
		if cerr := db.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Ping verifies both connections are usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return err
	}
	return db.reader.PingContext(ctx)
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}
