package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
)

// SessionHandler handles session management endpoints used by the
// dashboard to badge and reset authentication state.
type SessionHandler struct {
	store  session.Store
	gate   *session.Gate
	logger log.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(store session.Store, gate *session.Gate, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, gate: gate, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions/logout", h.logout)
	mux.HandleFunc("GET /api/sessions/{actorID}/auth", h.authStatus)
}

// LogoutRequest is the logout request body.
type LogoutRequest struct {
	ActorID string `json:"actorId"`
}

func (h *SessionHandler) logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "actorId is required")
		return
	}

	if err := h.store.Clear(r.Context(), req.ActorID); err != nil {
		h.logger.Error("clearing session", "actor_id", req.ActorID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not clear the session")
		return
	}
	h.gate.ObserveExpiry(req.ActorID)

	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// AuthStatusResponse reports whether the actor holds a live credential.
type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	State         string `json:"state"`
}

// authStatus reads the live store, so TTL expiry shows up immediately.
// A credential adopted during a login_required interrupt is not proof
// of login until the user completes the login page, so a gate stuck in
// PendingLogin badges as unauthenticated.
func (h *SessionHandler) authStatus(w http.ResponseWriter, r *http.Request) {
	actorID := r.PathValue("actorID")
	if actorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "actorID is required")
		return
	}

	_, ok, err := h.store.Get(r.Context(), actorID)
	if err != nil {
		h.logger.Error("reading session", "actor_id", actorID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not read the session")
		return
	}
	if !ok {
		h.gate.ObserveExpiry(actorID)
	}
	state := h.gate.State(actorID)

	writeJSON(w, http.StatusOK, AuthStatusResponse{
		Authenticated: ok && state != session.StatePendingLogin,
		State:         state.String(),
	})
}
