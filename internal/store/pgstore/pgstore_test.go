package pgstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trade-ledger/internal/db"
	"trade-ledger/internal/store"
	"trade-ledger/internal/store/pgstore"
	"trade-ledger/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when no test database is configured.
func setupTestStore(t *testing.T) *pgstore.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.Migrate(ctx, pool, filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)

	return pgstore.New(pool)
}

func TestPgstore_Conformance(t *testing.T) {
	storetest.Run(t, setupTestStore(t))
}

func TestPgstore_NegativeStockRejectedByConstraint(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	type sp struct {
		ID    string `json:"id"`
		Stock int64  `json:"stock"`
	}
	require.NoError(t, s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Set(ctx, "supplierProducts", "constraint-check", sp{ID: "constraint-check", Stock: 1})
	}))
	t.Cleanup(func() {
		_ = s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.Delete(ctx, "supplierProducts", "constraint-check")
		})
	})

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Increment(ctx, "supplierProducts", "constraint-check", "stock", -2)
	})
	require.Error(t, err)

	var got sp
	require.NoError(t, s.Get(ctx, "supplierProducts", "constraint-check", &got))
	assert.Equal(t, int64(1), got.Stock)
}
