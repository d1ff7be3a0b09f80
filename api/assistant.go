package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ecofinance/finagent/internal/log"
)

// maxQueryBytes caps the request body size.
const maxQueryBytes = 64 << 10

// Answerer runs one conversation turn. Satisfied by
// *assistant.Orchestrator.
type Answerer interface {
	Answer(ctx context.Context, actorID, query string) (string, error)
}

// AssistantHandler handles the conversation endpoint.
type AssistantHandler struct {
	answerer Answerer
	logger   log.Logger
}

// NewAssistantHandler creates the conversation handler.
func NewAssistantHandler(answerer Answerer, logger log.Logger) *AssistantHandler {
	return &AssistantHandler{answerer: answerer, logger: logger}
}

// RegisterRoutes registers the assistant route on the given mux.
func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assistant", h.ask)
}

// AskRequest is the conversation request body. ActorID is optional: a
// fresh identity is minted when the dashboard has none yet.
type AskRequest struct {
	Query   string `json:"query"`
	ActorID string `json:"actorId,omitempty"`
}

// AskResponse is the conversation response body.
type AskResponse struct {
	Response string `json:"response"`
	ActorID  string `json:"actorId"`
}

func (h *AssistantHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	body := http.MaxBytesReader(w, r.Body, maxQueryBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	actorID := req.ActorID
	if actorID == "" {
		actorID = uuid.NewString()
	}

	answer, err := h.answerer.Answer(r.Context(), actorID, req.Query)
	if err != nil {
		// Only context cancellation escapes the orchestrator.
		h.logger.Warn("assistant turn aborted", "actor_id", actorID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "turn_aborted", "the request was cancelled")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Response: answer, ActorID: actorID})
}
