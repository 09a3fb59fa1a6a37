package store

import (
	"context"
	"fmt"
)

// Guard wraps a backend transaction and enforces reads-before-writes.
// Backends wrap their Tx with Guard before handing it to a TxFunc.
func Guard(tx Tx) Tx {
	return &guardedTx{inner: tx}
}

type guardedTx struct {
	inner Tx
	wrote bool
}

func (g *guardedTx) Get(ctx context.Context, collection, id string, dst any) error {
	if g.wrote {
		return fmt.Errorf("get %s/%s: %w", collection, id, ErrReadAfterWrite)
	}
	return g.inner.Get(ctx, collection, id, dst)
}

func (g *guardedTx) Query(ctx context.Context, collection string, q Query, dst any) error {
	if g.wrote {
		return fmt.Errorf("query %s: %w", collection, ErrReadAfterWrite)
	}
	return g.inner.Query(ctx, collection, q, dst)
}

func (g *guardedTx) Set(ctx context.Context, collection, id string, doc any) error {
	g.wrote = true
	return g.inner.Set(ctx, collection, id, doc)
}

func (g *guardedTx) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	g.wrote = true
	return g.inner.Increment(ctx, collection, id, field, delta)
}

func (g *guardedTx) Delete(ctx context.Context, collection, id string) error {
	g.wrote = true
	return g.inner.Delete(ctx, collection, id)
}
