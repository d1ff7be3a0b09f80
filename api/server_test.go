package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
)

// stubAnswerer scripts the orchestrator.
type stubAnswerer struct {
	answer string
	err    error
	actors []string
}

func (s *stubAnswerer) Answer(_ context.Context, actorID, _ string) (string, error) {
	s.actors = append(s.actors, actorID)
	return s.answer, s.err
}

func newTestServer(t *testing.T, answerer Answerer) (*Server, session.Store, *session.Gate) {
	t.Helper()
	store := session.NewMemoryStore(log.NewNop())
	gate := session.NewGate()
	return NewServer(answerer, store, gate, nil, log.NewNop()), store, gate
}

func TestAssistantEndpoint(t *testing.T) {
	answerer := &stubAnswerer{answer: "Your net worth is ₹6,58,305."}
	srv, _, _ := newTestServer(t, answerer)

	body := `{"query":"What is my net worth?","actorId":"actor-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/assistant", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != answerer.answer {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.ActorID != "actor-1" {
		t.Errorf("actorId = %q, want actor-1", resp.ActorID)
	}
}

func TestAssistantMintsActorID(t *testing.T) {
	answerer := &stubAnswerer{answer: "hello"}
	srv, _, _ := newTestServer(t, answerer)

	req := httptest.NewRequest(http.MethodPost, "/api/assistant",
		strings.NewReader(`{"query":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ActorID == "" {
		t.Error("expected a minted actorId")
	}
	if len(answerer.actors) != 1 || answerer.actors[0] != resp.ActorID {
		t.Errorf("orchestrator saw actors %v, response actor %q", answerer.actors, resp.ActorID)
	}
}

func TestAssistantRejectsBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubAnswerer{answer: "unused"})

	cases := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"empty query", `{"query":"   "}`},
		{"missing query", `{"actorId":"a"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/assistant", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAssistantCancelledTurn(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubAnswerer{err: errors.New("context canceled")})

	req := httptest.NewRequest(http.MethodPost, "/api/assistant",
		strings.NewReader(`{"query":"hi","actorId":"a"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLogoutClearsCredential(t *testing.T) {
	srv, store, gate := newTestServer(t, &stubAnswerer{})
	ctx := context.Background()

	if err := store.Set(ctx, "actor-1", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gate.ObserveAuthenticated("actor-1")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/logout",
		strings.NewReader(`{"actorId":"actor-1"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok, _ := store.Get(ctx, "actor-1"); ok {
		t.Error("credential survived logout")
	}
	if got := gate.State("actor-1"); got != session.StateUnauthenticated {
		t.Errorf("gate = %v, want unauthenticated", got)
	}
}

func TestAuthStatus(t *testing.T) {
	srv, store, _ := newTestServer(t, &stubAnswerer{})
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/actor-1/auth", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp AuthStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Authenticated {
		t.Error("expected unauthenticated before login")
	}

	if err := store.Set(ctx, "actor-1", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/actor-1/auth", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Authenticated {
		t.Error("expected authenticated after Set")
	}
}

func TestAuthStatusPendingLoginBadgesUnauthenticated(t *testing.T) {
	srv, store, gate := newTestServer(t, &stubAnswerer{})
	ctx := context.Background()

	// A login interrupt adopts the server-chosen session id before the
	// user has visited the login page.
	if err := store.Set(ctx, "actor-1", "mcp-session-s1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gate.ObserveLoginRequired("actor-1")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/actor-1/auth", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp AuthStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Authenticated {
		t.Error("adopted credential badged as authenticated before login completed")
	}
	if resp.State != session.StatePendingLogin.String() {
		t.Errorf("state = %q, want %q", resp.State, session.StatePendingLogin)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubAnswerer{})

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := chain(panicky, recoveryMiddleware(log.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
