package tools

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ecofinance/finagent/internal/fimcp"
)

type actorKey struct{}

// WithActor tags the context with the conversation actor a tool call
// belongs to. The orchestrator sets it before every model turn.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the actor tagged on the context, or "" when absent.
func ActorFrom(ctx context.Context) string {
	actorID, _ := ctx.Value(actorKey{}).(string)
	return actorID
}

// DefineGenkitTools registers the catalog with Genkit so declarations
// reach the model, and returns refs for Generate calls.
//
// The registered functions route through Dispatch like every other
// caller; they only run when a flow executes tools directly (DevUI),
// since the orchestrator requests tool calls as data and dispatches
// them itself.
func (r *Registry) DefineGenkitTools(g *genkit.Genkit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(r.order))

	auth := genkit.DefineTool(g, ToolAuthenticate, authenticateDescription,
		func(toolCtx *ai.ToolContext, input AuthenticateInput) (string, error) {
			result, err := r.Dispatch(toolCtx.Context, ActorFrom(toolCtx.Context),
				ToolAuthenticate, map[string]any{"passcode": input.Passcode})
			if err != nil {
				return "", err
			}
			return resultText(result), nil
		})
	refs = append(refs, auth)

	for _, name := range r.order {
		if name == ToolAuthenticate {
			continue
		}
		t := r.tools[name]
		ref := genkit.DefineTool(g, name, t.decl.Description,
			func(toolCtx *ai.ToolContext, _ EmptyInput) (string, error) {
				result, err := r.Dispatch(toolCtx.Context, ActorFrom(toolCtx.Context), name, nil)
				if err != nil {
					return "", err
				}
				return resultText(result), nil
			})
		refs = append(refs, ref)
	}
	return refs
}

// resultText flattens a result for direct tool execution paths.
func resultText(result fimcp.Result) string {
	switch result.Status {
	case fimcp.StatusLoginRequired:
		return result.Message + " " + result.LoginURL
	case fimcp.StatusFailed:
		return "tool failed: " + result.Reason
	default:
		return result.Text
	}
}
