package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/serroba/swiftlink/internal/links"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore keeps blobs in a single-file SQLite database, one per profile.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps writes serialized and lets ":memory:" work.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

func (s *SQLiteStore) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, data)

	return err
}

// Ping checks the database is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

// Compile-time check.
var _ links.Storage = (*SQLiteStore)(nil)
