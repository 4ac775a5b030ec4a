package repository

import (
	"context"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// Replace removes any prior sessions for s.UserID and inserts s,
	// preserving the single-live-session-per-user invariant (last login wins).
	Replace(ctx context.Context, s *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// DeleteByToken removes the session for token. Deleting an absent token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	// DeleteExpired removes all sessions whose expiry is at or before now and
	// returns the number of rows removed. Safe to run concurrently with lookups.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
