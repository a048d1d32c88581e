package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"onsalenow.io/analytics/internal/domain"
)

// dbtx is the subset of *pgxpool.Pool the store and outbox use.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL implementation of domain.Store.
// Every document is a jsonb row keyed by (collection, id).
type Store struct {
	pool dbtx
}

// New creates a new postgres Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS notice_outbox (
	event_id   UUID        PRIMARY KEY,
	seller_id  TEXT        NOT NULL,
	tier       TEXT        NOT NULL,
	status     TEXT        NOT NULL,
	attempts   INT         NOT NULL DEFAULT 0,
	claimed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	sent_at    TIMESTAMPTZ,
	last_error TEXT,
	UNIQUE (seller_id, tier)
);`

// EnsureSchema creates the documents and notice_outbox tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Read fetches a single document.
func (s *Store) Read(ctx context.Context, collection, id string) (domain.Record, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return decodeBody(body)
}

// ReadAll fetches every document of a collection.
func (s *Store) ReadAll(ctx context.Context, collection string) (map[string]domain.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, body FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("read all %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

// Write overwrites the whole document, or deletes it when record is nil.
func (s *Store) Write(ctx context.Context, collection, id string, record domain.Record) error {
	if id == "" {
		return fmt.Errorf("write %s: empty id", collection)
	}
	if record == nil {
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		return nil
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, collection, id, body)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	return nil
}

// QueryEqual fetches documents whose top-level field equals value (jsonb equality).
func (s *Store) QueryEqual(ctx context.Context, collection, field string, value any) (map[string]domain.Record, error) {
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, body FROM documents
		WHERE collection = $1 AND body -> $2 = $3::jsonb
	`, collection, field, want)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", collection, field, err)
	}
	return scanDocuments(rows)
}

// SetFlag sets one boolean field in place with jsonb_set, leaving sibling fields untouched.
func (s *Store) SetFlag(ctx context.Context, collection, id, field string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET body = jsonb_set(body, $3::text[], 'true'::jsonb, true), updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, []string{field})
	if err != nil {
		return fmt.Errorf("set %s on %s/%s: %w", field, collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetFields merges fields into the stored body with jsonb concatenation, so
// concurrent flag writes on sibling fields survive.
func (s *Store) SetFields(ctx context.Context, collection, id string, fields domain.Record) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s/%s patch: %w", collection, id, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET body = body || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, patch)
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocuments(rows pgx.Rows) (map[string]domain.Record, error) {
	defer rows.Close()

	out := make(map[string]domain.Record)
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		r, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		out[id] = r
	}
	return out, rows.Err()
}

func decodeBody(body []byte) (domain.Record, error) {
	var r domain.Record
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if r == nil {
		r = domain.Record{}
	}
	return r, nil
}
