package domain

import "time"

// Session binds an issued token to a user and a server-side expiry,
// independent of the token's own embedded expiry. At most one session is
// live per user; a new login replaces any prior session.
type Session struct {
	ID        string
	UserID    string
	Token     string // opaque signed token string, unique in the store
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session's server-side expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
