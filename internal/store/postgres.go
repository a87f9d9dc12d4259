package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/swiftlink/internal/links"
)

// PostgresStore is a PostgreSQL implementation of links.Storage.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed blob store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the key-value table when it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}

func (p *PostgresStore) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

func (p *PostgresStore) Write(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	_, err := p.pool.Exec(ctx, query, key, data)

	return err
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ links.Storage = (*PostgresStore)(nil)
