// Package memstore is an in-process store.Store. Documents are kept as JSON,
// so they round-trip exactly like the PostgreSQL backend. Transactions are
// serialized by a store-wide lock and never conflict.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"trade-ledger/internal/store"
)

type record struct {
	data []byte
	seq  int64
}

type docKey struct {
	collection string
	id         string
}

// Store keeps every collection in memory.
type Store struct {
	txMu sync.Mutex // one transaction at a time

	mu    sync.RWMutex
	colls map[string]map[string]*record
	seq   int64
}

// New returns an empty store.
func New() *Store {
	return &Store{colls: make(map[string]map[string]*record)}
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	rec, ok := s.colls[collection][id]
	var data []byte
	if ok {
		data = rec.data
	}
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query implements store.Reader. Results come back in insertion order.
func (s *Store) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	recs := make([]*record, 0, len(s.colls[collection]))
	for _, rec := range s.colls[collection] {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	var docs [][]byte
	for _, rec := range recs {
		ok, err := matches(rec.data, q.Filters)
		if err != nil {
			return fmt.Errorf("failed to filter %s: %w", collection, err)
		}
		if !ok {
			continue
		}
		docs = append(docs, rec.data)
		if q.Limit > 0 && len(docs) == q.Limit {
			break
		}
	}
	return store.DecodeAll(docs, dst)
}

// RunTransaction implements store.Store. Writes are staged and applied
// together when fn returns nil.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{store: s, staged: make(map[docKey][]byte)}
	if err := fn(ctx, store.Guard(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

// Close implements store.Store.
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range tx.order {
		data := tx.staged[k]
		coll := s.colls[k.collection]
		if data == nil {
			delete(coll, k.id)
			continue
		}
		if coll == nil {
			coll = make(map[string]*record)
			s.colls[k.collection] = coll
		}
		if rec, ok := coll[k.id]; ok {
			rec.data = data
			continue
		}
		s.seq++
		coll[k.id] = &record{data: data, seq: s.seq}
	}
}

// lookup returns the committed document bytes, or nil.
func (s *Store) lookup(k docKey) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.colls[k.collection][k.id]; ok {
		return rec.data
	}
	return nil
}

type memTx struct {
	store  *Store
	staged map[docKey][]byte // nil value marks a delete
	order  []docKey
}

func (t *memTx) Get(ctx context.Context, collection, id string, dst any) error {
	return t.store.Get(ctx, collection, id, dst)
}

func (t *memTx) Query(ctx context.Context, collection string, q store.Query, dst any) error {
	return t.store.Query(ctx, collection, q, dst)
}

func (t *memTx) Set(ctx context.Context, collection, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	t.stage(docKey{collection, id}, data)
	return nil
}

func (t *memTx) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := docKey{collection, id}
	current, ok := t.current(k)
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}

	doc := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(current))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}

	var value int64
	switch v := doc[field].(type) {
	case nil:
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("field %s of %s/%s is not an integer: %w", field, collection, id, err)
		}
		value = n
	default:
		return fmt.Errorf("field %s of %s/%s is not an integer", field, collection, id)
	}
	doc[field] = value + delta

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	t.stage(k, data)
	return nil
}

func (t *memTx) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := docKey{collection, id}
	if _, ok := t.current(k); !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	t.stage(k, nil)
	return nil
}

func (t *memTx) current(k docKey) ([]byte, bool) {
	if data, staged := t.staged[k]; staged {
		return data, data != nil
	}
	data := t.store.lookup(k)
	return data, data != nil
}

func (t *memTx) stage(k docKey, data []byte) {
	if _, seen := t.staged[k]; !seen {
		t.order = append(t.order, k)
	}
	t.staged[k] = data
}

func matches(data []byte, filters []store.Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	doc := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return false, err
	}
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false, nil
		}
		switch tv := v.(type) {
		case string:
			if tv != f.Value {
				return false, nil
			}
		default:
			if fmt.Sprint(tv) != f.Value {
				return false, nil
			}
		}
	}
	return true, nil
}
