package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/security"
	"github.com/Dak6000/ETax-Togo/internal/server/respond"
	sessiondomain "github.com/Dak6000/ETax-Togo/internal/session/domain"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

// SessionStore is the session lookup needed by the authenticator.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (*sessiondomain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

// UserStore is the user lookup needed by the authenticator.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Authenticator gates protected routes. A request passes only when it carries
// a bearer token that maps to a live session, verifies cryptographically, and
// resolves to an existing user.
type Authenticator struct {
	tokens   *security.TokenProvider
	sessions SessionStore
	users    UserStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthenticator returns an Authenticator with the given dependencies.
func NewAuthenticator(tokens *security.TokenProvider, sessions SessionStore, users UserStore, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate validates the request's bearer token and attaches the resolved
// user to the request context. Sessions found expired are deleted on the spot
// before the request is rejected.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			respond.Error(w, http.StatusUnauthorized, "missing token")
			return
		}

		sess, err := a.sessions.GetByToken(r.Context(), token)
		if err != nil {
			a.logger.Error("session lookup failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if sess == nil {
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if sess.Expired(a.now()) {
			if err := a.sessions.DeleteByToken(r.Context(), token); err != nil {
				a.logger.Error("expired session cleanup failed", "error", err)
			}
			respond.Error(w, http.StatusUnauthorized, "expired token")
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := a.users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			a.logger.Error("user lookup failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if user == nil {
			respond.Error(w, http.StatusUnauthorized, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
// Must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || user.Role != userdomain.RoleAdmin {
			respond.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
