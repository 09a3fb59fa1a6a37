package bootstrap

import (
	"context"
	"testing"
	"time"

	"trade-ledger/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreBackend:      config.BackendMemory,
		TxMaxAttempts:     3,
		TxInitialInterval: 5 * time.Millisecond,
		TaxRate:           decimal.RequireFromString("0.11"),
		LowStockThreshold: 10,
	}
}

func TestRetryPolicy_FromConfig(t *testing.T) {
	p := RetryPolicy(memoryConfig())
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, p.InitialInterval)
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	rt, err := Open(ctx, memoryConfig(), nil)
	require.NoError(t, err)

	applied, err := rt.Migrate(ctx, "does-not-matter")
	require.NoError(t, err)
	assert.Empty(t, applied)

	seeded, err := rt.Service.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, seeded.Products)

	require.NoError(t, rt.Close(ctx))
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "redis"
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
