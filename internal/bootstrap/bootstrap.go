// Package bootstrap turns a Config into a running ApplicationService. The
// server, the CLI and the seed tool share it so every entry point selects the
// store backend the same way.
package bootstrap

import (
	"context"
	"fmt"

	"trade-ledger/internal/app"
	"trade-ledger/internal/config"
	"trade-ledger/internal/core"
	"trade-ledger/internal/db"
	"trade-ledger/internal/logger"
	"trade-ledger/internal/store"
	"trade-ledger/internal/store/memstore"
	"trade-ledger/internal/store/mongostore"
	"trade-ledger/internal/store/pgstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Runtime is a wired application plus the connections behind it.
type Runtime struct {
	Store   store.Store
	Service app.ApplicationService

	pool *pgxpool.Pool
}

// RetryPolicy builds the transaction retry policy from config.
func RetryPolicy(cfg *config.Config) store.RetryPolicy {
	p := store.DefaultRetryPolicy()
	p.MaxAttempts = cfg.TxMaxAttempts
	if cfg.TxInitialInterval > 0 {
		p.InitialInterval = cfg.TxInitialInterval
	}
	return p
}

// Open connects the configured backend and wires every service. rec may be nil.
func Open(ctx context.Context, cfg *config.Config, rec core.Recorder) (*Runtime, error) {
	log := logger.WithComponent("bootstrap")
	rt := &Runtime{}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		rt.Store = memstore.New()
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rt.pool = pool
		rt.Store = pgstore.New(pool)
	case config.BackendMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		rt.Store = mongostore.New(client, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	runner := core.NewTxRunner(rt.Store, RetryPolicy(cfg), rec)
	rt.Service = app.Wire(runner, core.SettingsDefaults{
		TaxRate:           cfg.TaxRate,
		LowStockThreshold: cfg.LowStockThreshold,
	})

	log.Info().Str("backend", cfg.StoreBackend).Msg("store opened")
	return rt, nil
}

// Migrate applies pending SQL migrations. Only the postgres backend has a
// schema; the other backends report nothing applied.
func (rt *Runtime) Migrate(ctx context.Context, dir string) ([]string, error) {
	if rt.pool == nil {
		return nil, nil
	}
	return db.Migrate(ctx, rt.pool, dir)
}

// Close releases the store and its connections. The mongo store owns its
// client and disconnects it itself.
func (rt *Runtime) Close(ctx context.Context) error {
	if err := rt.Store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
	return nil
}
