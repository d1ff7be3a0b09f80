package session

import (
	"context"
	"time"
)

// TTL is the default credential lifetime, matching the Fi MCP session
// lifetime of 30 minutes.
const TTL = 30 * time.Minute

// Credential is an opaque session token issued by the Fi MCP service.
// The zero value means "unauthenticated".
type Credential struct {
	// Token is the opaque credential string presented to the remote
	// service on each call.
	Token string

	// IssuedAt is when the credential was stored. The store treats a
	// credential older than the TTL as absent.
	IssuedAt time.Time
}

// IsZero reports whether the credential is empty (unauthenticated).
func (c Credential) IsZero() bool {
	return c.Token == ""
}

// Store persists one session credential per conversation actor.
//
// Absence is a normal, common value: Get returns (zero, false, nil)
// when no live credential exists. A non-nil error indicates a storage
// layer failure, which is fatal for the current turn, distinct from
// domain outcomes like "unauthenticated".
//
// Implementations must be safe for concurrent use across independent
// actors; within one actor's lifetime writes are not expected to race.
type Store interface {
	// Set stores the credential for the actor with a fresh issue time,
	// overwriting any prior session. There is no merge.
	Set(ctx context.Context, actorID, token string) error

	// Get returns the actor's credential if present and not expired.
	Get(ctx context.Context, actorID string) (Credential, bool, error)

	// Clear removes the actor's credential immediately. Clearing an
	// absent credential is not an error.
	Clear(ctx context.Context, actorID string) error
}
