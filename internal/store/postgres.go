// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	createDocumentsTable = `CREATE TABLE IF NOT EXISTS compair_documents (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	selectDocument = `SELECT value FROM compair_documents
WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	upsertDocument = `INSERT INTO compair_documents (key, value, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	deleteDocument = `DELETE FROM compair_documents WHERE key = $1`

	listDocumentKeys = `SELECT key FROM compair_documents
WHERE left(key, length($1)) = $1 AND (expires_at IS NULL OR expires_at > now())`
)

// PostgresStore keeps documents in a single JSONB table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the documents table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("%w: create documents table: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx, selectDocument, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: postgres get %s: %v", ErrUnavailable, key, err)
	}
	return value, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: p.now().Add(ttl).UTC(), Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, upsertDocument, key, string(value), expiresAt); err != nil {
		return fmt.Errorf("%w: postgres put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, deleteDocument, key); err != nil {
		return fmt.Errorf("%w: postgres delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, listDocumentKeys, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres list %s: %v", ErrUnavailable, prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: postgres scan: %v", ErrUnavailable, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: postgres rows: %v", ErrUnavailable, err)
	}
	return keys, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping: %v", ErrUnavailable, err)
	}
	return nil
}
