// Package storetest holds behaviour checks every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trade-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Doc is the document shape used by the checks.
type Doc struct {
	ID      string          `json:"id" bson:"_id"`
	OwnerID string          `json:"ownerId" bson:"ownerId"`
	Price   decimal.Decimal `json:"price" bson:"price"`
	Stock   int64           `json:"stock" bson:"stock"`
	At      time.Time       `json:"at" bson:"at"`
}

// Run executes the backend checks. Each check gets its own collection name so
// backends may share one database.
func Run(t *testing.T, s store.Store) {
	t.Run("SetGetQuery", func(t *testing.T) { testSetGetQuery(t, s) })
	t.Run("Increment", func(t *testing.T) { testIncrement(t, s) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, s) })
	t.Run("ReadAfterWrite", func(t *testing.T) { testReadAfterWrite(t, s) })
	t.Run("ConcurrentCounter", func(t *testing.T) { testConcurrentCounter(t, s) })
}

func collection(name string) string {
	return name + "_" + uuid.NewString()[:8]
}

func set(t *testing.T, s store.Store, coll string, docs ...Doc) {
	t.Helper()
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, d := range docs {
			if err := tx.Set(ctx, coll, d.ID, d); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func testSetGetQuery(t *testing.T, s store.Store) {
	ctx := context.Background()
	coll := collection("docs")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	set(t, s, coll,
		Doc{ID: "a", OwnerID: "o1", Price: decimal.RequireFromString("1250.50"), Stock: 3, At: at},
		Doc{ID: "b", OwnerID: "o2", Price: decimal.NewFromInt(7), Stock: 0, At: at},
		Doc{ID: "c", OwnerID: "o1", Price: decimal.Zero, Stock: 9, At: at},
	)

	var got Doc
	require.NoError(t, s.Get(ctx, coll, "a", &got))
	assert.Equal(t, "o1", got.OwnerID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1250.5")), "price %s", got.Price)
	assert.True(t, got.At.Equal(at))

	assert.ErrorIs(t, s.Get(ctx, coll, "missing", &got), store.ErrNotFound)

	var owned []Doc
	require.NoError(t, s.Query(ctx, coll, store.Where("ownerId", "o1"), &owned))
	ids := []string{}
	for _, d := range owned {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)

	var none []Doc
	require.NoError(t, s.Query(ctx, coll, store.Where("ownerId", "nobody"), &none))
	assert.Empty(t, none)

	var limited []Doc
	require.NoError(t, s.Query(ctx, coll, store.Query{Limit: 1}, &limited))
	assert.Len(t, limited, 1)

	// replace
	set(t, s, coll, Doc{ID: "b", OwnerID: "o3", Price: decimal.NewFromInt(8), At: at})
	require.NoError(t, s.Get(ctx, coll, "b", &got))
	assert.Equal(t, "o3", got.OwnerID)
}

func testIncrement(t *testing.T, s store.Store) {
	ctx := context.Background()
	coll := collection("stock")
	set(t, s, coll, Doc{ID: "sp", OwnerID: "o", Price: decimal.NewFromInt(1), Stock: 10})

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var cur Doc
		if err := tx.Get(ctx, coll, "sp", &cur); err != nil {
			return err
		}
		return tx.Increment(ctx, coll, "sp", "stock", -4)
	})
	require.NoError(t, err)

	var got Doc
	require.NoError(t, s.Get(ctx, coll, "sp", &got))
	assert.Equal(t, int64(6), got.Stock)
	assert.Equal(t, "o", got.OwnerID)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1)))

	err = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Increment(ctx, coll, "nope", "stock", 1)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Delete(ctx, coll, "sp")
	})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Get(ctx, coll, "sp", &got), store.ErrNotFound)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	coll := collection("rollback")
	set(t, s, coll, Doc{ID: "a", Price: decimal.Zero, Stock: 5})

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Increment(ctx, coll, "a", "stock", 100); err != nil {
			return err
		}
		if err := tx.Set(ctx, coll, "b", Doc{ID: "b", Price: decimal.Zero}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got Doc
	require.NoError(t, s.Get(ctx, coll, "a", &got))
	assert.Equal(t, int64(5), got.Stock)
	assert.ErrorIs(t, s.Get(ctx, coll, "b", &got), store.ErrNotFound)
}

func testReadAfterWrite(t *testing.T, s store.Store) {
	coll := collection("raw")
	set(t, s, coll, Doc{ID: "a", Price: decimal.Zero})

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.Increment(ctx, coll, "a", "stock", 1); err != nil {
			return err
		}
		var d Doc
		return tx.Get(ctx, coll, "a", &d)
	})
	assert.ErrorIs(t, err, store.ErrReadAfterWrite)
}

// testConcurrentCounter runs read-modify-write transactions in parallel with
// retries and expects no lost update.
func testConcurrentCounter(t *testing.T, s store.Store) {
	ctx := context.Background()
	coll := collection("counter")
	set(t, s, coll, Doc{ID: "n", Price: decimal.Zero})

	const workers = 10
	policy := store.RetryPolicy{MaxAttempts: 50, InitialInterval: 2 * time.Millisecond, MaxInterval: 50 * time.Millisecond}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.RunWithRetry(ctx, s, policy, func(ctx context.Context, tx store.Tx) error {
				var cur Doc
				if err := tx.Get(ctx, coll, "n", &cur); err != nil {
					return err
				}
				cur.Stock++
				return tx.Set(ctx, coll, "n", cur)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var got Doc
	require.NoError(t, s.Get(ctx, coll, "n", &got))
	assert.Equal(t, int64(workers), got.Stock)
}
