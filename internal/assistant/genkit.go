package assistant

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ecofinance/finagent/internal/log"
)

// GenkitClient is the Genkit-backed ModelClient.
type GenkitClient struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef
	logger    log.Logger
}

// NewGenkitClient creates a model client bound to the named model and
// the registered tool catalog.
func NewGenkitClient(g *genkit.Genkit, modelName string, toolRefs []ai.ToolRef, logger log.Logger) (*GenkitClient, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitClient{g: g, modelName: modelName, toolRefs: toolRefs, logger: logger}, nil
}

// Decide runs the first pass. Tool elections are returned as data, not
// executed inside the model call.
func (c *GenkitClient) Decide(ctx context.Context, query string) (Decision, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(query),
		ai.WithTools(c.toolRefs...),
		ai.WithReturnToolRequests(true),
	)
	if err != nil {
		return Decision{}, fmt.Errorf("generating decision: %w", err)
	}

	requests := resp.ToolRequests()
	if len(requests) == 0 {
		return Decision{Text: resp.Text()}, nil
	}
	if len(requests) > 1 {
		c.logger.DebugContext(ctx, "model requested multiple tools, taking the first",
			"count", len(requests))
	}

	req := requests[0]
	args, _ := req.Input.(map[string]any)
	return Decision{
		Text: resp.Text(),
		ToolCall: &ToolCall{
			Name: req.Name,
			Ref:  req.Ref,
			Args: args,
		},
		raw: resp.Message,
	}, nil
}

// Summarize runs the second pass with the three-message history
// [user prompt, model message, tool response]. No tools are in scope:
// the turn dispatched exactly once already.
func (c *GenkitClient) Summarize(ctx context.Context, turn Turn) (string, error) {
	if turn.Decision.ToolCall == nil {
		return "", fmt.Errorf("summary pass requires a tool call")
	}

	modelMsg := turn.Decision.raw
	if modelMsg == nil {
		modelMsg = &ai.Message{
			Role: ai.RoleModel,
			Content: []*ai.Part{{
				Kind: ai.PartToolRequest,
				ToolRequest: &ai.ToolRequest{
					Name:  turn.Decision.ToolCall.Name,
					Ref:   turn.Decision.ToolCall.Ref,
					Input: turn.Decision.ToolCall.Args,
				},
			}},
		}
	}

	var output any = turn.ToolResult.Text
	if turn.ToolResult.Payload != nil {
		output = turn.ToolResult.Payload
	}
	toolMsg := &ai.Message{
		Role: ai.RoleTool,
		Content: []*ai.Part{ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   turn.Decision.ToolCall.Name,
			Ref:    turn.Decision.ToolCall.Ref,
			Output: output,
		})},
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(
			ai.NewUserMessage(ai.NewTextPart(turn.Query)),
			modelMsg,
			toolMsg,
		),
	)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return resp.Text(), nil
}

// AskInput is the flow input.
type AskInput struct {
	Query   string `json:"query" jsonschema:"description=The user's question about their finances."`
	ActorID string `json:"actorId,omitempty" jsonschema:"description=Conversation actor identity; a new one is minted when empty."`
}

// AskOutput is the flow output.
type AskOutput struct {
	Response string `json:"response" jsonschema:"description=The assistant's answer."`
	ActorID  string `json:"actorId"`
}

// DefineFlow registers the assistant turn as a Genkit flow so it shows
// up in the DevUI and can be invoked by name.
func DefineFlow(g *genkit.Genkit, o *Orchestrator, newActorID func() string) {
	genkit.DefineFlow(g, "assistant",
		func(ctx context.Context, input AskInput) (AskOutput, error) {
			actorID := input.ActorID
			if actorID == "" {
				actorID = newActorID()
			}
			answer, err := o.Answer(ctx, actorID, input.Query)
			if err != nil {
				return AskOutput{}, err
			}
			return AskOutput{Response: answer, ActorID: actorID}, nil
		})
}
