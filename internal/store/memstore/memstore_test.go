package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"trade-ledger/internal/store"
	"trade-ledger/internal/store/memstore"
	"trade-ledger/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     string `json:"id"`
	SaleID string `json:"saleId"`
	Stock  int64  `json:"stock"`
	Active bool   `json:"active"`
}

func seed(t *testing.T, s *memstore.Store, docs ...item) {
	t.Helper()
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, d := range docs {
			if err := tx.Set(ctx, "items", d.ID, d); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMemstore_GetAndQuery(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s,
		item{ID: "a", SaleID: "s1", Stock: 1, Active: true},
		item{ID: "b", SaleID: "s2", Stock: 2},
		item{ID: "c", SaleID: "s1", Stock: 3},
	)

	var got item
	require.NoError(t, s.Get(ctx, "items", "b", &got))
	assert.Equal(t, int64(2), got.Stock)

	err := s.Get(ctx, "items", "zz", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var list []item
	require.NoError(t, s.Query(ctx, "items", store.Where("saleId", "s1"), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)

	list = nil
	require.NoError(t, s.Query(ctx, "items", store.Where("active", "true"), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	list = nil
	require.NoError(t, s.Query(ctx, "items", store.Query{Limit: 2}, &list))
	assert.Len(t, list, 2)
}

func TestMemstore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, item{ID: "a", Stock: 5})

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Increment(ctx, "items", "a", "stock", -5); err != nil {
			return err
		}
		if err := tx.Set(ctx, "items", "b", item{ID: "b"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got item
	require.NoError(t, s.Get(ctx, "items", "a", &got))
	assert.Equal(t, int64(5), got.Stock)
	assert.ErrorIs(t, s.Get(ctx, "items", "b", &got), store.ErrNotFound)
}

func TestMemstore_IncrementAndDelete(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, item{ID: "a", Stock: 5, SaleID: "s1"})

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Increment(ctx, "items", "a", "stock", 3); err != nil {
			return err
		}
		return tx.Increment(ctx, "items", "a", "stock", -1)
	})
	require.NoError(t, err)

	var got item
	require.NoError(t, s.Get(ctx, "items", "a", &got))
	assert.Equal(t, int64(7), got.Stock)
	assert.Equal(t, "s1", got.SaleID, "increment must keep other fields")

	err = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Increment(ctx, "items", "missing", "stock", 1)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Delete(ctx, "items", "a")
	}))
	assert.ErrorIs(t, s.Get(ctx, "items", "a", &got), store.ErrNotFound)
}

func TestMemstore_ReadAfterWriteRejected(t *testing.T) {
	s := memstore.New()
	seed(t, s, item{ID: "a"})

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.Set(ctx, "items", "b", item{ID: "b"}); err != nil {
			return err
		}
		var got item
		return tx.Get(ctx, "items", "a", &got)
	})
	assert.ErrorIs(t, err, store.ErrReadAfterWrite)
}

func TestMemstore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seed(t, s, item{ID: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
				var cur item
				if err := tx.Get(ctx, "items", "a", &cur); err != nil {
					return err
				}
				cur.Stock++
				return tx.Set(ctx, "items", "a", cur)
			})
		}()
	}
	wg.Wait()

	var got item
	require.NoError(t, s.Get(ctx, "items", "a", &got))
	assert.Equal(t, int64(50), got.Stock)
}

func TestMemstore_Conformance(t *testing.T) {
	storetest.Run(t, memstore.New())
}
