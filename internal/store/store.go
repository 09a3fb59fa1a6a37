// Package store defines the transactional document store the ledger runs on.
//
// Documents are Go structs addressed by (collection, id). A transaction must
// perform every read before its first write; backends reject a read issued
// after a write with ErrReadAfterWrite.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a transaction lost a race with a concurrent writer.
	// The whole transaction function may be retried.
	ErrConflict = errors.New("transaction conflict")
	// ErrReadAfterWrite is returned when a transaction reads after it has written.
	ErrReadAfterWrite = errors.New("transaction reads must precede writes")
)

// Filter is an equality predicate on a top-level document field.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one collection. All filters must match.
type Query struct {
	Filters []Filter
	Limit   int
}

// Where returns a query with a single equality filter.
func Where(field, value string) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

// And adds an equality filter.
func (q Query) And(field, value string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// WithLimit caps the number of documents returned. Zero means no limit.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Reader is the read side shared by stores and transactions.
type Reader interface {
	// Get decodes the document into dst, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst any) error
	// Query decodes all matching documents into dst, which must point to a slice.
	Query(ctx context.Context, collection string, q Query, dst any) error
}

// Tx is a transaction handle. Writes become visible only when the
// transaction function returns nil and the commit succeeds.
type Tx interface {
	Reader
	// Set creates or fully replaces a document.
	Set(ctx context.Context, collection, id string, doc any) error
	// Increment atomically adds delta to an integer field of an existing document.
	Increment(ctx context.Context, collection, id, field string, delta int64) error
	// Delete removes a document. Deleting a missing document returns ErrNotFound.
	Delete(ctx context.Context, collection, id string) error
}

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is a document store with multi-document transactions.
type Store interface {
	Reader
	// RunTransaction runs fn once inside a transaction. It does not retry;
	// see RunWithRetry.
	RunTransaction(ctx context.Context, fn TxFunc) error
	Close(ctx context.Context) error
}

// DecodeAll decodes a list of JSON documents into dst, a pointer to a slice.
func DecodeAll(docs [][]byte, dst any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	if err := json.Unmarshal(buf.Bytes(), dst); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

// FilterDocument returns the filters as a JSON object, suitable for
// containment matching.
func FilterDocument(filters []Filter) map[string]string {
	m := make(map[string]string, len(filters))
	for _, f := range filters {
		m[f.Field] = f.Value
	}
	return m
}
