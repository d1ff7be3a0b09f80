package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ecofinance/finagent/internal/fimcp"
	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
)

// fakeInvoker replays scripted results per tool name and records calls.
type fakeInvoker struct {
	results map[string]fimcp.Result
	err     error
	calls   []string
}

func (f *fakeInvoker) Invoke(_ context.Context, _, tool string, _ map[string]any) (fimcp.Result, error) {
	f.calls = append(f.calls, tool)
	if f.err != nil {
		return fimcp.Result{}, f.err
	}
	if r, ok := f.results[tool]; ok {
		return r, nil
	}
	return fimcp.Ok(`{"tool":"`+tool+`"}`, map[string]any{"tool": tool}), nil
}

func newTestRegistry(t *testing.T, invoker Invoker) (*Registry, session.Store, *session.Gate) {
	t.Helper()
	store := session.NewMemoryStore(log.NewNop())
	gate := session.NewGate()
	r, err := NewRegistry(invoker, store, gate, log.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r, store, gate
}

func TestRegistryCatalog(t *testing.T) {
	r, _, _ := newTestRegistry(t, &fakeInvoker{})

	want := []string{
		"authenticate", "check_auth",
		"fetch_net_worth", "fetch_credit_report", "fetch_epf_details",
		"fetch_mf_transactions", "fetch_bank_transactions", "fetch_stock_transactions",
		"get_financial_context",
	}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for _, decl := range r.Declarations() {
		if decl.Description == "" {
			t.Errorf("tool %q has no description", decl.Name)
		}
		if decl.InputSchema == nil {
			t.Errorf("tool %q has no input schema", decl.Name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	invoker := &fakeInvoker{}
	r, _, _ := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", "fetch_lottery_numbers", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusFailed {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusFailed)
	}
	if len(invoker.calls) != 0 {
		t.Errorf("unknown tool reached the invoker: %v", invoker.calls)
	}
}

func TestDispatchSchemaViolationBeforeNetwork(t *testing.T) {
	invoker := &fakeInvoker{}
	r, _, _ := newTestRegistry(t, invoker)

	// authenticate requires a string passcode.
	result, err := r.Dispatch(context.Background(), "actor-1", ToolAuthenticate,
		map[string]any{"passcode": 12345})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusFailed {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusFailed)
	}
	if !strings.Contains(result.Reason, "authenticate") {
		t.Errorf("Reason = %q, want the tool named", result.Reason)
	}
	if len(invoker.calls) != 0 {
		t.Errorf("invalid arguments reached the invoker: %v", invoker.calls)
	}
}

func TestAuthenticateStoresCredentialAndOpensGate(t *testing.T) {
	r, store, gate := newTestRegistry(t, &fakeInvoker{})
	ctx := context.Background()

	result, err := r.Dispatch(ctx, "actor-1", ToolAuthenticate,
		map[string]any{"passcode": "2222222222"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusOK {
		t.Fatalf("Status = %v, want %v (reason %q)", result.Status, fimcp.StatusOK, result.Reason)
	}

	cred, ok, err := store.Get(ctx, "actor-1")
	if err != nil || !ok {
		t.Fatalf("credential not stored: ok=%v err=%v", ok, err)
	}
	if cred.Token != "2222222222" {
		t.Errorf("Token = %q, want the passcode", cred.Token)
	}
	if got := gate.State("actor-1"); got != session.StateAuthenticated {
		t.Errorf("gate = %v, want %v", got, session.StateAuthenticated)
	}
}

func TestAuthenticateEmptyPasscode(t *testing.T) {
	r, store, _ := newTestRegistry(t, &fakeInvoker{})
	ctx := context.Background()

	result, err := r.Dispatch(ctx, "actor-1", ToolAuthenticate,
		map[string]any{"passcode": ""})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusFailed {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusFailed)
	}
	if _, ok, _ := store.Get(ctx, "actor-1"); ok {
		t.Error("empty passcode must not be stored")
	}
}

func TestCheckAuthReflectsStore(t *testing.T) {
	r, store, _ := newTestRegistry(t, &fakeInvoker{})
	ctx := context.Background()

	result, err := r.Dispatch(ctx, "actor-1", ToolCheckAuth, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := result.Payload["authenticated"]; got != false {
		t.Errorf("authenticated = %v, want false before login", got)
	}

	if err := store.Set(ctx, "actor-1", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	result, err = r.Dispatch(ctx, "actor-1", ToolCheckAuth, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := result.Payload["authenticated"]; got != true {
		t.Errorf("authenticated = %v, want true after login", got)
	}
}

func TestCheckAuthFalseWhilePendingLogin(t *testing.T) {
	invoker := &fakeInvoker{results: map[string]fimcp.Result{
		ToolFetchNetWorth: fimcp.LoginRequired("http://example/mockWebPage?sessionId=s1", "login first"),
	}}
	r, store, gate := newTestRegistry(t, invoker)
	ctx := context.Background()

	// The interrupt path leaves an adopted session id in the store.
	if _, err := r.Dispatch(ctx, "actor-1", ToolFetchNetWorth, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := store.Set(ctx, "actor-1", "mcp-session-s1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := gate.State("actor-1"); got != session.StatePendingLogin {
		t.Fatalf("gate = %v, want %v", got, session.StatePendingLogin)
	}

	// The credential exists but the login page was never completed.
	result, err := r.Dispatch(ctx, "actor-1", ToolCheckAuth, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := result.Payload["authenticated"]; got != false {
		t.Errorf("authenticated = %v, want false while login is pending", got)
	}
}

func TestDataToolSuccessOpensGate(t *testing.T) {
	invoker := &fakeInvoker{results: map[string]fimcp.Result{
		ToolFetchNetWorth: fimcp.Ok(`{"netWorthResponse":{}}`, map[string]any{"netWorthResponse": map[string]any{}}),
	}}
	r, _, gate := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", ToolFetchNetWorth, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusOK {
		t.Fatalf("Status = %v", result.Status)
	}
	if got := gate.State("actor-1"); got != session.StateAuthenticated {
		t.Errorf("gate = %v, want %v", got, session.StateAuthenticated)
	}
}

func TestDataToolLoginRequiredMovesGateToPending(t *testing.T) {
	invoker := &fakeInvoker{results: map[string]fimcp.Result{
		ToolFetchNetWorth: fimcp.LoginRequired("http://example/mockWebPage?sessionId=s1", "login first"),
	}}
	r, _, gate := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", ToolFetchNetWorth, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusLoginRequired {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusLoginRequired)
	}
	if got := gate.State("actor-1"); got != session.StatePendingLogin {
		t.Errorf("gate = %v, want %v", got, session.StatePendingLogin)
	}
}

func TestFinancialContextAggregatesAllSections(t *testing.T) {
	invoker := &fakeInvoker{}
	r, _, _ := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", ToolGetFinancialContext, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusOK {
		t.Fatalf("Status = %v, want %v (reason %q)", result.Status, fimcp.StatusOK, result.Reason)
	}
	for _, name := range DataToolNames {
		if !strings.Contains(result.Text, "## "+name) {
			t.Errorf("context block missing section %q", name)
		}
	}
	if len(invoker.calls) != len(DataToolNames) {
		t.Errorf("invoker calls = %v, want all data tools", invoker.calls)
	}
}

func TestFinancialContextStopsAtLoginRequired(t *testing.T) {
	invoker := &fakeInvoker{results: map[string]fimcp.Result{
		ToolFetchCreditReport: fimcp.LoginRequired("http://example/mockWebPage?sessionId=s1", "login first"),
	}}
	r, _, _ := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", ToolGetFinancialContext, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusLoginRequired {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusLoginRequired)
	}
	// net_worth then credit_report; nothing after the interrupt.
	if len(invoker.calls) != 2 {
		t.Errorf("invoker calls = %v, want sweep stopped at the interrupt", invoker.calls)
	}
}

func TestFinancialContextNotesFailedSections(t *testing.T) {
	invoker := &fakeInvoker{results: map[string]fimcp.Result{
		ToolFetchEPFDetails: fimcp.Failure("fetch_epf_details returned HTTP 500"),
	}}
	r, _, _ := newTestRegistry(t, invoker)

	result, err := r.Dispatch(context.Background(), "actor-1", ToolGetFinancialContext, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Status != fimcp.StatusOK {
		t.Fatalf("Status = %v, want %v", result.Status, fimcp.StatusOK)
	}
	if !strings.Contains(result.Text, "unavailable") {
		t.Errorf("context block does not note the failed section: %q", result.Text)
	}
}

func TestDispatchStoreFailureIsAnError(t *testing.T) {
	storeErr := errors.New("pool closed")
	gate := session.NewGate()
	r, err := NewRegistry(&fakeInvoker{}, failingStore{err: storeErr}, gate, log.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = r.Dispatch(context.Background(), "actor-1", ToolCheckAuth, nil)
	if !errors.Is(err, storeErr) {
		t.Fatalf("Dispatch error = %v, want wrapped %v", err, storeErr)
	}
}

type failingStore struct{ err error }

func (f failingStore) Set(context.Context, string, string) error { return f.err }
func (f failingStore) Get(context.Context, string) (session.Credential, bool, error) {
	return session.Credential{}, false, f.err
}
func (f failingStore) Clear(context.Context, string) error { return f.err }
