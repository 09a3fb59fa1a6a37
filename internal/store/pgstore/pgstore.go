// Package pgstore implements store.Store on a PostgreSQL JSONB table.
//
// Every document lives in the documents table (see migrations). Reads inside
// a transaction take row locks with SELECT ... FOR UPDATE under REPEATABLE
// READ, so concurrent transactions on the same rows serialize; deadlocks,
// serialization failures and duplicate inserts surface as store.ErrConflict.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trade-ledger/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a store.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool. The caller keeps ownership of the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	return getDocument(ctx, s.pool, collection, id, dst, false)
}

// Query implements store.Reader.
func (s *Store) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	return queryDocuments(ctx, s.pool, collection, q, dst, false)
}

// RunTransaction implements store.Store.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, store.Guard(&pgTx{tx: tx})); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *Store) Close(context.Context) error { return nil }

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Get(ctx context.Context, collection, id string, dst any) error {
	return getDocument(ctx, t.tx, collection, id, dst, true)
}

func (t *pgTx) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	return queryDocuments(ctx, t.tx, collection, q, dst, true)
}

func (t *pgTx) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data,
		    version = documents.version + 1,
		    updated_at = now()`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

func (t *pgTx) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE documents
		SET data = jsonb_set(data, ARRAY[$3::text], to_jsonb(COALESCE((data->>$3)::bigint, 0) + $4::bigint)),
		    version = version + 1,
		    updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, field, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s of %s/%s: %w", field, collection, id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, collection, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func getDocument(ctx context.Context, q pgxQuerier, collection, id string, dst any, forUpdate bool) error {
	sql := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	var data []byte
	if err := q.QueryRow(ctx, sql, collection, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
		}
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, mapError(err))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func queryDocuments(ctx context.Context, q pgxQuerier, collection string, query store.Query, dst any, forUpdate bool) error {
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT data FROM documents WHERE collection = $1`)

	if len(query.Filters) > 0 {
		filter, err := json.Marshal(store.FilterDocument(query.Filters))
		if err != nil {
			return fmt.Errorf("failed to encode filter: %w", err)
		}
		args = append(args, filter)
		sb.WriteString(` AND data @> $2::jsonb`)
	}
	sb.WriteString(` ORDER BY created_at, id`)
	if query.Limit > 0 {
		args = append(args, query.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if forUpdate {
		sb.WriteString(` FOR UPDATE`)
	}

	rows, err := q.Query(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, mapError(err))
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		docs = append(docs, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, mapError(err))
	}
	return store.DecodeAll(docs, dst)
}

// mapError translates retryable PostgreSQL failures into store.ErrConflict.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Message)
		}
	}
	return err
}
