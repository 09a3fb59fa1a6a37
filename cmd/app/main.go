package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trade-ledger/internal/adapters/cli"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (*bootstrap.Runtime, error) {
		return bootstrap.Open(ctx, cfg, nil)
	}
	if err := cli.Execute(ctx, open, cfg.MigrationsDir, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
