package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/ecofinance/finagent/internal/app"
	"github.com/ecofinance/finagent/internal/config"
	"github.com/ecofinance/finagent/internal/log"
)

// runAsk answers one question from the command line. Each invocation is
// its own actor, so a login URL printed here binds to this process's
// in-memory session only for the lifetime of the answer.
func runAsk(logger log.Logger, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("usage: finagent ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
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

	answer, err := a.Orchestrator.Answer(ctx, uuid.NewString(), query)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	fmt.Println(answer)
	return nil
}
