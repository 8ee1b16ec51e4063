package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements weather.LocalStore on a single key/value table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS local_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres: failed to create local_store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM local_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres: failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO local_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres: failed to set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM local_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres: failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM local_store ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to list keys: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM local_store WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("postgres: failed to remove %d keys: %w", len(keys), err)
	}
	return nil
}

// Health checks database connectivity
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
