// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Entries live in a single kv_entries table keyed by (namespace, key), the
// same key space the BBolt and in-memory backends use. A shared database
// lets several workstations of one operator keep a single session.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consorcioci/viernes/storage"
)

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const upsertSQL = `INSERT INTO kv_entries (namespace, key, value, updated_at)
	 VALUES ($1, $2, $3, now())
	 ON CONFLICT (namespace, key)
	 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

const deleteSQL = `DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`

func (s *Store) Get(namespace, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(context.Background(),
		`SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`,
		namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%s/%s: %w", namespace, key, storage.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) List(namespace string) ([]string, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT key FROM kv_entries WHERE namespace = $1 ORDER BY key`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Put(namespace, key, value string) error {
	_, err := s.pool.Exec(context.Background(), upsertSQL, namespace, key, value)
	return err
}

func (s *Store) Delete(namespace, key string) error {
	_, err := s.pool.Exec(context.Background(), deleteSQL, namespace, key)
	return err
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

type pgTx struct {
	ctx       context.Context
	tx        pgx.Tx
	namespace string
}

func (t *pgTx) Put(key, value string) error {
	_, err := t.tx.Exec(t.ctx, upsertSQL, t.namespace, key, value)
	return err
}

func (t *pgTx) Delete(key string) error {
	_, err := t.tx.Exec(t.ctx, deleteSQL, t.namespace, key)
	return err
}

// Batch runs fn inside a database transaction, committing only when fn
// succeeds.
func (s *Store) Batch(namespace string, fn func(tx storage.Tx) error) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgTx{ctx: ctx, tx: tx, namespace: namespace}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
