package session

import "sync"

// State is the authentication state of one conversation actor.
type State int

const (
	// StateUnauthenticated means no live credential is held.
	StateUnauthenticated State = iota

	// StateAuthenticated means the last live remote result succeeded
	// with the held credential.
	StateAuthenticated

	// StatePendingLogin means a login URL has been issued but the user
	// has not yet confirmed completing the out-of-band login step.
	StatePendingLogin
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StatePendingLogin:
		return "pending_login"
	default:
		return "unknown"
	}
}

// Gate tracks the authentication state machine per actor.
//
// The gate cycles for the life of the conversation; there is no
// terminal state. Transitions are driven only by live outcomes
// (authenticate success, remote login_required, TTL expiry). A data
// tool is never treated as satisfied by a stale belief of
// authentication, so gate state is informational and the remote service
// stays the single source of truth.
//
// Gate is safe for concurrent use.
type Gate struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewGate creates a gate with every actor initially Unauthenticated.
func NewGate() *Gate {
	return &Gate{states: make(map[string]State)}
}

// State returns the actor's current state. Unknown actors are
// Unauthenticated.
func (g *Gate) State(actorID string) State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.states[actorID]
}

// ObserveAuthenticated records a successful authentication or a
// successful data call: the actor is Authenticated from any state.
func (g *Gate) ObserveAuthenticated(actorID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[actorID] = StateAuthenticated
}

// ObserveLoginRequired records a login_required interrupt from the
// remote service.
//
// From Authenticated the belief was stale, so the actor drops to
// Unauthenticated. From Unauthenticated (a login URL has now been
// issued) the actor moves to PendingLogin. PendingLogin is absorbing
// until the user confirms and the retried call succeeds.
func (g *Gate) ObserveLoginRequired(actorID string) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.states[actorID] {
	case StateAuthenticated:
		g.states[actorID] = StateUnauthenticated
	case StateUnauthenticated:
		g.states[actorID] = StatePendingLogin
	case StatePendingLogin:
		// stays pending
	}
	return g.states[actorID]
}

// ObserveExpiry records TTL expiry or explicit logout: the actor is
// Unauthenticated.
func (g *Gate) ObserveExpiry(actorID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[actorID] = StateUnauthenticated
}
