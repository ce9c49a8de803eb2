// Package postgres stores collections in PostgreSQL with the pgvector extension,
// one table per collection.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS ragdex_collections (
	name       TEXT PRIMARY KEY,
	dimension  INTEGER NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS ragdex_kv (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL
);`

// Store wraps a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to dsn, waiting up to readiness for the server, and applies the base schema.
func Open(ctx context.Context, dsn string, readiness time.Duration, logger *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &Store{pool: pool, logger: logger}
	if err := s.WaitForReady(ctx, readiness); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WaitForReady pings until the server answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		s.logger.Warn("Postgres not ready", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Collections returns the collection repository backed by this store.
func (s *Store) Collections() *Collections {
	return &Collections{store: s}
}

// Records returns the vector record repository backed by this store.
func (s *Store) Records() *Records {
	return &Records{store: s}
}

// Get reads a cache value. A missing key yields db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM ragdex_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Set writes a cache value, replacing any previous one.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO ragdex_kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// tableName returns the quoted per-collection table identifier.
func tableName(collection string) string {
	return pgx.Identifier{"ragdex_rec_" + collection}.Sanitize()
}

// indexName returns the quoted HNSW index identifier for a collection table.
func indexName(collection string) string {
	return pgx.Identifier{"ragdex_rec_" + collection + "_hnsw"}.Sanitize()
}
