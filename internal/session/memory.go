package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store keyed by actor identity.
//
// MemoryStore is safe for concurrent use by multiple goroutines. Expired
// credentials are treated as absent and evicted lazily on read.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]Credential

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL overrides the default 30-minute credential lifetime.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Tests use this to exercise
// expiry without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory credential store.
// logger may be nil, in which case slog.Default() is used.
func NewMemoryStore(logger *slog.Logger, opts ...MemoryOption) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}

	s := &MemoryStore{
		credentials: make(map[string]Credential),
		ttl:         TTL,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores the credential with a fresh issue time, overwriting any
// prior session for the actor.
func (s *MemoryStore) Set(_ context.Context, actorID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[actorID] = Credential{
		Token:    token,
		IssuedAt: s.now(),
	}
	s.logger.Debug("stored session credential", "actor_id", actorID)
	return nil
}

// Get returns the actor's credential if present and within the TTL.
// An expired credential is evicted and reported as absent.
func (s *MemoryStore) Get(_ context.Context, actorID string) (Credential, bool, error) {
	s.mu.RLock()
	cred, ok := s.credentials[actorID]
	s.mu.RUnlock()

	if !ok || cred.IsZero() {
		return Credential{}, false, nil
	}

	if s.now().Sub(cred.IssuedAt) >= s.ttl {
		// Expired: evict so a stale value is never left behind.
		s.mu.Lock()
		// Re-check under the write lock; the actor may have re-authenticated.
		if current, still := s.credentials[actorID]; still && current.IssuedAt.Equal(cred.IssuedAt) {
			delete(s.credentials, actorID)
		}
		s.mu.Unlock()
		s.logger.Debug("session credential expired", "actor_id", actorID)
		return Credential{}, false, nil
	}

	return cred, true, nil
}

// Clear removes the actor's credential. Clearing an absent credential
// is a no-op.
func (s *MemoryStore) Clear(_ context.Context, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.credentials, actorID)
	s.logger.Debug("cleared session credential", "actor_id", actorID)
	return nil
}
