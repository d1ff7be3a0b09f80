// Package session manages Fi MCP session credentials and the
// authentication state machine that governs data-tool access.
//
// A credential is an opaque token issued by the Fi MCP service, valid
// for a fixed time-to-live (30 minutes by default). At most one active
// credential exists per conversation actor; a missing or expired
// credential is equivalent to "unauthenticated" and is a normal value,
// not an error.
//
// Two Store implementations are provided:
//   - MemoryStore: per-process map, the default
//   - PostgresStore: shared persistence across replicas
//
// The Gate tracks whether an actor is Unauthenticated, Authenticated,
// or PendingLogin (a login URL has been issued but not yet confirmed).
// Gate state is advisory: every data request is re-validated against the
// live remote result, never against a cached boolean, because the TTL
// can expire between check and use.
package session
