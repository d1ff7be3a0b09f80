package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/log"
)

// defaultMockFiAddr matches the endpoint the client defaults to.
const defaultMockFiAddr = "localhost:8080"

// runMockFi starts the mock Fi MCP data service for local development.
func runMockFi(args []string) error {
	addr := defaultMockFiAddr
	if len(args) > 0 && args[0] != "" {
		addr = args[0]
	}

	logger := log.New(log.Config{Level: slog.LevelInfo})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           fimcp.NewMockServer(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting mock Fi MCP service", "addr", addr)
		fmt.Fprintf(os.Stderr, "mock Fi MCP service listening on http://%s/mcp/stream\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down mock Fi MCP service")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
