package middleware

import (
	"context"
	"net/http"
	"strings"

	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

type contextKey int

const userKey contextKey = iota

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *userdomain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user attached by Authenticate,
// or nil when the request did not pass authentication.
func UserFromContext(ctx context.Context) *userdomain.User {
	u, _ := ctx.Value(userKey).(*userdomain.User)
	return u
}

// BearerToken extracts the token from the Authorization header. Returns ""
// when the header is absent or not a Bearer credential.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
