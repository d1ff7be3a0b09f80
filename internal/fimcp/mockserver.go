package fimcp

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// MockServer is a stand-in for the Fi MCP dev service. It speaks the
// same JSON-RPC surface as the real service and replays its canned test
// payloads, so the rest of the system can be developed and tested
// without a live account.
//
// The login dance mirrors the dev service: an unauthenticated tools/call
// gets a login_required reply carrying a fresh session id embedded in a
// /mockWebPage URL; submitting an allowed phone number on that page
// activates the session.
type MockServer struct {
	mux *http.ServeMux

	mu       sync.Mutex
	sessions map[string]string // session id -> phone number
}

// Allowed dev passcodes, mirroring the fi-mcp test dataset.
var allowedPasscodes = map[string]bool{
	"1111111111": true,
	"2222222222": true,
	"3333333333": true,
	"4444444444": true,
	"5555555555": true,
	"6666666666": true,
	"7777777777": true,
	"8888888888": true,
	"9999999999": true,
}

// suggestedLoginPhone is the passcode the login_required message points
// users at, so the guidance always names a number the allowlist accepts.
const suggestedLoginPhone = "2222222222"

// NewMockServer creates a mock service with no active sessions.
func NewMockServer() *MockServer {
	s := &MockServer{
		mux:      http.NewServeMux(),
		sessions: make(map[string]string),
	}
	s.mux.HandleFunc("POST /mcp/stream", s.handleToolCall)
	s.mux.HandleFunc("GET /mockWebPage", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	return s
}

func (s *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Activate binds a session id to a phone number, as if the user had
// completed the login page. Intended for tests.
func (s *MockServer) Activate(sessionID, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = phone
}

// authenticated reports whether the presented token belongs to an
// activated session. A token that is itself an allowed passcode is
// accepted too, matching the dev service's direct-passcode login.
func (s *MockServer) authenticated(token string) bool {
	if token == "" {
		return false
	}
	if allowedPasscodes[token] {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok
}

func (s *MockServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if req.Method != methodToolsCall {
		writeEnvelope(w, req.ID, "", &rpcError{Code: -32601, Message: "method not found"})
		return
	}

	if !s.authenticated(r.Header.Get(SessionHeader)) {
		sid := "mcp-session-" + uuid.NewString()
		loginURL := fmt.Sprintf("http://%s/mockWebPage?sessionId=%s", r.Host, sid)
		marker, _ := json.Marshal(loginMarker{
			Status:   statusLoginRequired,
			LoginURL: loginURL,
			Message:  fmt.Sprintf("Needs to login first by going to the login url. Please use phone number %s to login.", suggestedLoginPhone),
		})
		writeEnvelope(w, req.ID, string(marker), nil)
		return
	}

	text, ok := cannedPayloads[req.Params.Name]
	if !ok {
		text = fmt.Sprintf(`{"message":"Successfully called %s. In a real app, this would return live data."}`, req.Params.Name)
	}
	writeEnvelope(w, req.ID, text, nil)
}

func writeEnvelope(w http.ResponseWriter, id string, text string, rpcErr *rpcError) {
	resp := rpcResponse{JSONRPC: "2.0", ID: json.RawMessage(fmt.Sprintf("%q", id))}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = &callResult{Content: []contentItem{{Type: "text", Text: text}}}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "encoding reply", http.StatusInternalServerError)
	}
}

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Fi MCP Mock Login</title></head>
<body>
  <h1>Fi MCP Mock Login</h1>
  <form method="POST" action="/login">
    <input type="hidden" name="sessionId" value="{{.SessionID}}">
    <label>Phone number: <input type="text" name="phoneNumber"></label>
    <button type="submit">Login</button>
  </form>
</body>
</html>
`))

func (s *MockServer) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sessionId")
	if sid == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPage.Execute(w, struct{ SessionID string }{SessionID: sid})
}

func (s *MockServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	sid := r.FormValue("sessionId")
	phone := r.FormValue("phoneNumber")
	if sid == "" || phone == "" {
		http.Error(w, "sessionId and phoneNumber are required", http.StatusBadRequest)
		return
	}
	if !allowedPasscodes[phone] {
		http.Error(w, "unknown phone number", http.StatusForbidden)
		return
	}
	s.Activate(sid, phone)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Login successful</h1><p>You can return to the assistant.</p></body></html>")
}

// cannedPayloads replays the fi-mcp dev dataset, keyed by tool name.
var cannedPayloads = map[string]string{
	"fetch_net_worth": `{
  "netWorthResponse": {
    "totalNetWorthValue": {"currencyCode": "INR", "units": "658305"},
    "assetValues": [
      {"netWorthAttribute": "ASSET_TYPE_MUTUAL_FUND", "value": {"currencyCode": "INR", "units": "84642"}},
      {"netWorthAttribute": "ASSET_TYPE_EPF", "value": {"currencyCode": "INR", "units": "211111"}}
    ],
    "liabilityValues": [
      {"netWorthAttribute": "LIABILITY_TYPE_VEHICLE_LOAN", "value": {"currencyCode": "INR", "units": "5000"}}
    ]
  }
}`,
	"fetch_credit_report": `{
  "creditReports": [
    {"creditReportData": {"score": {"bureauScore": "746"}}}
  ]
}`,
	"fetch_epf_details": `{
  "uanAccounts": [
    {"rawDetails": {"overall_pf_balance": {"current_pf_balance": "211111"}}}
  ]
}`,
	"fetch_mf_transactions": `{
  "mfTransactions": [
    {"schemeName": "Canara Robeco Gilt Fund - Regular Plan", "txns": [[1, "2023-01-01", 66.5546, 100, 6655.46]]}
  ]
}`,
	"fetch_bank_transactions": `{
  "bankTransactions": [
    {"bank": "HDFC Bank", "txns": [["80085", "UPI-SHEETAL RAVINDRA DA-SHEETAL.DAMBAL@OKSBI", "2025-07-09", 1, "CARD_PAYMENT", "-79109"]]}
  ]
}`,
	"fetch_stock_transactions": `{
  "stockTransactions": [
    {"isin": "INE0BWS23018", "txns": [[1, "2023-05-04", 100]]}
  ]
}`,
}
