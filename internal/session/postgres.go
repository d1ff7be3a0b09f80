package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a Store backed by PostgreSQL, for deployments where
// multiple replicas serve the same conversation actors.
//
// The fi_sessions table is created by the embedded migration in db/.
// A storage error here is fatal for the turn: no progress is possible
// without the ability to read or write the credential.
//
// PostgresStore is safe for concurrent use.
type PostgresStore struct {
	pool   *pgxpool.Pool
	ttl    time.Duration
	logger *slog.Logger
}

// NewPostgresStore creates a Postgres-backed credential store.
// ttl <= 0 falls back to the default TTL. logger may be nil.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration, logger *slog.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if ttl <= 0 {
		ttl = TTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStore{pool: pool, ttl: ttl, logger: logger}, nil
}

// Set stores the credential with a fresh issue time, overwriting any
// prior session for the actor.
func (s *PostgresStore) Set(ctx context.Context, actorID, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fi_sessions (actor_id, token, issued_at)
		VALUES ($1, $2, now())
		ON CONFLICT (actor_id)
		DO UPDATE SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at`,
		actorID, token)
	if err != nil {
		return fmt.Errorf("storing session credential: %w", err)
	}

	s.logger.Debug("stored session credential", "actor_id", actorID)
	return nil
}

// Get returns the actor's credential if present and within the TTL.
// Expired rows are deleted opportunistically.
func (s *PostgresStore) Get(ctx context.Context, actorID string) (Credential, bool, error) {
	var cred Credential
	err := s.pool.QueryRow(ctx, `
		SELECT token, issued_at FROM fi_sessions
		WHERE actor_id = $1`,
		actorID).Scan(&cred.Token, &cred.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("reading session credential: %w", err)
	}

	if time.Since(cred.IssuedAt) >= s.ttl {
		if _, delErr := s.pool.Exec(ctx, `
			DELETE FROM fi_sessions WHERE actor_id = $1 AND issued_at = $2`,
			actorID, cred.IssuedAt); delErr != nil {
			// Eviction is best-effort; the credential is reported absent either way.
			s.logger.Warn("evicting expired session credential", "actor_id", actorID, "error", delErr)
		}
		return Credential{}, false, nil
	}

	return cred, true, nil
}

// Clear removes the actor's credential. Clearing an absent credential
// is a no-op.
func (s *PostgresStore) Clear(ctx context.Context, actorID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fi_sessions WHERE actor_id = $1`, actorID); err != nil {
		return fmt.Errorf("clearing session credential: %w", err)
	}

	s.logger.Debug("cleared session credential", "actor_id", actorID)
	return nil
}
