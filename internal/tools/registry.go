package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
)

// Invoker calls a tool on the remote financial data service. Defined
// here so the registry depends only on the behaviour it needs.
type Invoker interface {
	Invoke(ctx context.Context, actorID, tool string, args map[string]any) (fimcp.Result, error)
}

// Handler executes one tool for one actor. Degraded outcomes are
// carried in the Result; a non-nil error means the session store
// failed and the turn cannot proceed.
type Handler func(ctx context.Context, actorID string, args map[string]any) (fimcp.Result, error)

// Declaration describes a tool to the model.
type Declaration struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// tool pairs a declaration with its handler and the resolved schema
// used for pre-dispatch validation.
type tool struct {
	decl     Declaration
	resolved *jsonschema.Resolved
	remote   bool
	handler  Handler
}

// Registry holds the fixed tool set and dispatches calls by name.
//
// Dispatch validates arguments before any handler runs and advances
// the actor's auth gate from the live result, never from cached state.
type Registry struct {
	invoker Invoker
	store   session.Store
	gate    *session.Gate
	logger  log.Logger
	tools   map[string]*tool
	order   []string
}

// NewRegistry builds the registry with the fixed tool catalog.
func NewRegistry(invoker Invoker, store session.Store, gate *session.Gate, logger log.Logger) (*Registry, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("auth gate is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	r := &Registry{
		invoker: invoker,
		store:   store,
		gate:    gate,
		logger:  logger.With("component", "tools"),
		tools:   make(map[string]*tool),
	}
	if err := r.registerCatalog(); err != nil {
		return nil, fmt.Errorf("building tool catalog: %w", err)
	}
	return r, nil
}

// register adds one tool. Name collisions are a programming error.
func (r *Registry) register(name, description string, input *jsonschema.Schema, remote bool, handler Handler) error {
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q registered twice", name)
	}
	resolved, err := input.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema for %q: %w", name, err)
	}
	r.tools[name] = &tool{
		decl:     Declaration{Name: name, Description: description, InputSchema: input},
		resolved: resolved,
		remote:   remote,
		handler:  handler,
	}
	r.order = append(r.order, name)
	return nil
}

// Declarations returns the catalog in registration order.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].decl)
	}
	return decls
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Dispatch validates the arguments and runs the named tool for the
// actor, exactly once. An unknown name or a schema violation yields a
// Failure result without any remote call.
func (r *Registry) Dispatch(ctx context.Context, actorID, name string, args map[string]any) (fimcp.Result, error) {
	t, ok := r.tools[name]
	if !ok {
		r.logger.WarnContext(ctx, "unknown tool requested", "tool", name)
		return fimcp.Failure(fmt.Sprintf("unknown tool %q", name)), nil
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := t.resolved.Validate(args); err != nil {
		r.logger.WarnContext(ctx, "tool arguments rejected", "tool", name, "error", err)
		return fimcp.Failure(fmt.Sprintf("invalid arguments for %s: %v", name, err)), nil
	}

	result, err := t.handler(ctx, actorID, args)
	if err != nil {
		return fimcp.Result{}, err
	}

	r.observe(actorID, t, result)
	return result, nil
}

// observe advances the gate from a live tool outcome. Only remote
// successes prove authentication; local tools manage the gate in their
// own handlers.
func (r *Registry) observe(actorID string, t *tool, result fimcp.Result) {
	switch result.Status {
	case fimcp.StatusLoginRequired:
		r.gate.ObserveLoginRequired(actorID)
	case fimcp.StatusOK:
		if t.remote {
			r.gate.ObserveAuthenticated(actorID)
		}
	}
}
