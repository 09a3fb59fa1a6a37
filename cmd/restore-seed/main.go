// restore-seed loads the demo products, suppliers and customers into an empty
// store. It is a no-op when the store already has products.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"fmt"
	"os"

	"trade-ledger/internal/bootstrap"
	"trade-ledger/internal/config"
	"trade-ledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithComponent("restore-seed")

	ctx := context.Background()
	rt, err := bootstrap.Open(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer rt.Close(ctx)

	if _, err := rt.Migrate(ctx, cfg.MigrationsDir); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return
	}

	res, err := rt.Service.Seed(ctx)
	if err != nil {
		log.Error().Err(err).Msg("seed failed")
		return
	}
	if res.Skipped {
		log.Info().Msg("store already has products, nothing restored")
		return
	}
	log.Info().
		Int("products", res.Products).
		Int("suppliers", res.Suppliers).
		Int("supplier_products", res.SupplierProducts).
		Int("customers", res.Customers).
		Msg("seed restored")
}
