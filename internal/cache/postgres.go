package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores entries in the embed_cache table.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// NewPostgresFromURL opens a pool for connStr.
func NewPostgresFromURL(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// EnsureSchema creates the cache table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS embed_cache (
			slug       TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// Ping checks the connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool.
func (s *Postgres) Close() {
	s.db.Close()
}

// Get fetches the entry for key.
func (s *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	slug := Slugify(key)
	if slug == "" {
		return nil, false, nil
	}
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM embed_cache WHERE slug = $1`, slug).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set upserts value for key.
func (s *Postgres) Set(ctx context.Context, key string, value []byte) error {
	slug := Slugify(key)
	if slug == "" {
		return ErrEmptyKey
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO embed_cache (slug, value) VALUES ($1, $2)
		 ON CONFLICT (slug) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		slug, value)
	return err
}
