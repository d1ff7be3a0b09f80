// Package fimcp is the client for the Fi MCP financial data service.
//
// The service speaks JSON-RPC 2.0 over HTTP POST: each tool invocation
// is a "tools/call" request correlated by a per-request id, with the
// session credential carried in the Mcp-Session-Id header. The inner
// payload of a reply is itself loosely typed: structured JSON, a
// login_required marker, or plain instructional text. The client
// resolves that ambiguity by degrading gracefully: a decode failure is
// never an error, only an opaque text result.
//
// Authentication is discovered lazily. A missing credential is not
// short-circuited locally; the request is always sent so the remote
// service stays the single source of truth about what "unauthenticated"
// requires. When the service answers login_required, the client
// invalidates the stored credential, adopts the server-chosen session
// identifier embedded in the login URL, and reports the interrupt to
// the caller. It never retries on its own.
//
// MockServer implements the same wire protocol with the canned test
// payloads of the fi-mcp dev service, for local development and tests.
package fimcp
