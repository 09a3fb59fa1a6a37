package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("TX_MAX_ATTEMPTS", "")
	t.Setenv("TAX_RATE", "")
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.11")))
	assert.Equal(t, int64(10), cfg.LowStockThreshold)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "redis"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"zero attempts", map[string]string{"STORE_BACKEND": "memory", "TX_MAX_ATTEMPTS": "0"}},
		{"bad attempts", map[string]string{"STORE_BACKEND": "memory", "TX_MAX_ATTEMPTS": "many"}},
		{"tax above one", map[string]string{"STORE_BACKEND": "memory", "TAX_RATE": "11"}},
		{"negative threshold", map[string]string{"STORE_BACKEND": "memory", "LOW_STOCK_THRESHOLD": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
