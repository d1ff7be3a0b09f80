// Package app wires the application together: tracing, Genkit, the
// session store, the Fi MCP client, the tool registry, and the
// orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecofinance/finagent/db"
	"github.com/ecofinance/finagent/internal/assistant"
	"github.com/ecofinance/finagent/internal/config"
	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
	"github.com/ecofinance/finagent/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit       *genkit.Genkit
	DBPool       *pgxpool.Pool // nil when the in-memory store is used
	Store        session.Store
	Gate         *session.Gate
	Client       *fimcp.Client
	Registry     *tools.Registry
	Orchestrator *assistant.Orchestrator

	otelCleanup func()
}

// Setup creates and initializes the application. Call Close to release
// resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be ready before Genkit initializes its TracerProvider.
	a.otelCleanup = setupTracing(ctx, cfg, logger)

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	a.Genkit = g
	logger.Info("initialized genkit", "provider", cfg.Provider, "model", cfg.ModelName)

	store, pool, err := provideSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.DBPool = pool
	a.Gate = session.NewGate()

	a.Client = fimcp.NewClient(cfg.FiMCPEndpoint, store,
		fimcp.WithTimeout(cfg.FiMCPTimeout),
		fimcp.WithLogger(logger))

	registry, err := tools.NewRegistry(a.Client, store, a.Gate, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry
	toolRefs := registry.DefineGenkitTools(g)

	model, err := assistant.NewGenkitClient(g, cfg.ModelName, toolRefs, logger)
	if err != nil {
		return nil, err
	}
	orchestrator, err := assistant.NewOrchestrator(model, registry,
		assistant.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a.Orchestrator = orchestrator
	assistant.DefineFlow(g, orchestrator, uuid.NewString)
	assistant.DefineAdvisorFlows(g, cfg.ModelName)

	return a, nil
}

// provideSessionStore picks the store backend: Postgres with embedded
// migrations when configured, in-memory otherwise.
func provideSessionStore(ctx context.Context, cfg *config.Config, logger log.Logger) (session.Store, *pgxpool.Pool, error) {
	if !cfg.UsePostgres() {
		store := session.NewMemoryStore(logger, session.WithTTL(cfg.SessionTTL))
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL)
		return store, nil, nil
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging postgres: %w", err)
	}

	store, err := session.NewPostgresStore(pool, cfg.SessionTTL, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("using postgres session store",
		"host", cfg.PostgresHost, "ttl", cfg.SessionTTL)
	return store, pool, nil
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
