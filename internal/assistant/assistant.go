package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/tools"
)

// Apology is the single user-facing fallback for any internal failure.
const Apology = "I'm sorry, I ran into a problem while answering that. Please try again in a moment."

// ToolCall is a tool election returned by the model as data.
type ToolCall struct {
	Name string
	Ref  string
	Args map[string]any
}

// Decision is the outcome of the first model pass: either final text,
// or a tool call (possibly with accompanying text).
type Decision struct {
	Text     string
	ToolCall *ToolCall

	// raw preserves the model message for the summary-pass history.
	// Nil when the decision came from a fake; the Genkit client
	// reconstructs the message from ToolCall in that case.
	raw *ai.Message
}

// Turn carries one completed tool round into the summary pass.
type Turn struct {
	Query      string
	Decision   Decision
	ToolResult fimcp.Result
}

// ModelClient is the orchestrator's view of the language model.
type ModelClient interface {
	// Decide runs the first pass: the query with the full tool catalog
	// in scope, tool elections returned as data.
	Decide(ctx context.Context, query string) (Decision, error)

	// Summarize runs the second pass over the three-message turn
	// history and returns the final answer text.
	Summarize(ctx context.Context, turn Turn) (string, error)
}

// Dispatcher executes an elected tool. Satisfied by *tools.Registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, actorID, name string, args map[string]any) (fimcp.Result, error)
}

// Orchestrator runs conversation turns.
type Orchestrator struct {
	model      ModelClient
	dispatcher Dispatcher
	limiter    *rate.Limiter
	logger     log.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRateLimit throttles model turns across all actors.
func WithRateLimit(limit rate.Limit, burst int) OrchestratorOption {
	return func(o *Orchestrator) { o.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger log.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger.With("component", "assistant") }
}

// NewOrchestrator creates an orchestrator. The default rate limit
// allows one turn per second with a small burst.
func NewOrchestrator(model ModelClient, dispatcher Dispatcher, opts ...OrchestratorOption) (*Orchestrator, error) {
	if model == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	o := &Orchestrator{
		model:      model,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Limit(1), 5),
		logger:     log.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Answer runs one conversation turn for the actor.
//
// The returned error is non-nil only when the context is cancelled;
// every internal failure is logged and collapsed into the Apology text
// so a degraded turn still answers.
func (o *Orchestrator) Answer(ctx context.Context, actorID, query string) (string, error) {
	ctx = tools.WithActor(ctx, actorID)

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for turn slot: %w", err)
	}

	decision, err := o.model.Decide(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		o.logger.ErrorContext(ctx, "model decision failed", "actor_id", actorID, "error", err)
		return Apology, nil
	}

	// No tool elected: the model's text is the answer.
	if decision.ToolCall == nil {
		if strings.TrimSpace(decision.Text) == "" {
			o.logger.WarnContext(ctx, "model returned empty answer", "actor_id", actorID)
			return Apology, nil
		}
		return decision.Text, nil
	}

	result, err := o.dispatcher.Dispatch(ctx, actorID, decision.ToolCall.Name, decision.ToolCall.Args)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		o.logger.ErrorContext(ctx, "tool dispatch failed",
			"actor_id", actorID, "tool", decision.ToolCall.Name, "error", err)
		return Apology, nil
	}

	switch result.Status {
	case fimcp.StatusLoginRequired:
		// The interrupt replaces the summary pass: the user must act
		// before any data can flow.
		return loginMessage(result), nil
	case fimcp.StatusFailed:
		o.logger.WarnContext(ctx, "tool call failed",
			"actor_id", actorID, "tool", decision.ToolCall.Name, "reason", result.Reason)
		return Apology, nil
	}

	answer, err := o.model.Summarize(ctx, Turn{Query: query, Decision: decision, ToolResult: result})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		o.logger.ErrorContext(ctx, "model summary failed", "actor_id", actorID, "error", err)
		return Apology, nil
	}
	if strings.TrimSpace(answer) == "" {
		return Apology, nil
	}
	return answer, nil
}

// loginMessage renders the login interrupt as an actionable answer.
func loginMessage(result fimcp.Result) string {
	var b strings.Builder
	b.WriteString("You need to log in to your Fi account before I can access that data.\n\n")
	fmt.Fprintf(&b, "Please [open the login page](%s) and complete the login, then ask me again.", result.LoginURL)
	if result.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(result.Message)
	}
	return b.String()
}
