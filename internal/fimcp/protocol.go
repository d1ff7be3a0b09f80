package fimcp

import "encoding/json"

// SessionHeader carries the session credential on every call. The
// remote service reads it to decide whether the caller is logged in.
const SessionHeader = "Mcp-Session-Id"

// methodToolsCall is the only JSON-RPC method the client speaks.
const methodToolsCall = "tools/call"

// rpcRequest is the JSON-RPC 2.0 request envelope for a tool call.
type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  callParams `json:"params"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// rpcResponse is the reply envelope. Exactly one of Result and Error is
// set by a conforming server.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *callResult     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// callResult wraps the inner payload as a list of content items; the
// first text item carries the tool's reply.
type callResult struct {
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// loginMarker is the shape of the login_required interrupt embedded in
// the inner text. Only Status distinguishes it from ordinary payloads.
type loginMarker struct {
	Status   string `json:"status"`
	LoginURL string `json:"login_url"`
	Message  string `json:"message"`
}

const statusLoginRequired = "login_required"
