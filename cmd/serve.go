package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ecofinance/finagent/api"
	"github.com/ecofinance/finagent/internal/app"
	"github.com/ecofinance/finagent/internal/config"
	"github.com/ecofinance/finagent/internal/log"
)

// runServe initializes the application and starts the HTTP API server.
// The optional first argument overrides the configured listen address.
func runServe(logger log.Logger, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.ServeAddr
	if len(args) > 0 && args[0] != "" {
		addr = args[0]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}()

	server := api.NewServer(a.Orchestrator, a.Store, a.Gate, a.DBPool, logger)
	return server.Run(ctx, addr)
}
