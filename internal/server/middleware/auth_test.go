package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/security"
	sessiondomain "github.com/Dak6000/ETax-Togo/internal/session/domain"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

type memSessionStore struct {
	sessions map[string]*sessiondomain.Session
}

func (m *memSessionStore) GetByToken(_ context.Context, token string) (*sessiondomain.Session, error) {
	return m.sessions[token], nil
}

func (m *memSessionStore) DeleteByToken(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

type memUserStore struct {
	users map[string]*userdomain.User
}

func (m *memUserStore) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	return m.users[id], nil
}

type authFixture struct {
	auth     *Authenticator
	tokens   *security.TokenProvider
	sessions *memSessionStore
	users    *memUserStore
}

func newAuthFixture() *authFixture {
	tokens := security.NewTokenProvider([]byte("test-secret"), "etax-auth", "etax-api", time.Hour)
	sessions := &memSessionStore{sessions: map[string]*sessiondomain.Session{}}
	users := &memUserStore{users: map[string]*userdomain.User{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &authFixture{
		auth:     NewAuthenticator(tokens, sessions, users, logger),
		tokens:   tokens,
		sessions: sessions,
		users:    users,
	}
}

// login wires a user, token, and session together the way the auth service
// does, returning the bearer token.
func (f *authFixture) login(t *testing.T, user *userdomain.User, sessionTTL time.Duration) string {
	t.Helper()
	f.users.users[user.ID] = user
	token, _, err := f.tokens.Issue(user.ID, user.Email, user.FiscalNumber, string(user.Role))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	f.sessions.sessions[token] = &sessiondomain.Session{
		ID:        "s1",
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	return token
}

func doAuth(t *testing.T, f *authFixture, token string) (*httptest.ResponseRecorder, *userdomain.User) {
	t.Helper()
	var seen *userdomain.User
	handler := f.auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func assertRejected(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d", rec.Code, status)
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Success {
		t.Error("success = true on a rejected request")
	}
	if body.Message != message {
		t.Errorf("message = %q, want %q", body.Message, message)
	}
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	f := newAuthFixture()
	user := &userdomain.User{ID: "u1", Email: "kossi@example.tg", Role: userdomain.RoleUser}
	token := f.login(t, user, time.Hour)

	rec, seen := doAuth(t, f, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if seen == nil || seen.ID != "u1" {
		t.Errorf("context user = %+v, want u1", seen)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	f := newAuthFixture()
	rec, _ := doAuth(t, f, "")
	assertRejected(t, rec, http.StatusUnauthorized, "missing token")
}

func TestAuthenticateUnknownToken(t *testing.T) {
	f := newAuthFixture()
	rec, _ := doAuth(t, f, "no-such-token")
	assertRejected(t, rec, http.StatusUnauthorized, "invalid token")
}

func TestAuthenticateExpiredSessionDeleted(t *testing.T) {
	f := newAuthFixture()
	user := &userdomain.User{ID: "u1", Role: userdomain.RoleUser}
	token := f.login(t, user, -time.Minute)

	rec, _ := doAuth(t, f, token)
	assertRejected(t, rec, http.StatusUnauthorized, "expired token")
	if _, ok := f.sessions.sessions[token]; ok {
		t.Error("expired session was not deleted")
	}
}

func TestAuthenticateTamperedToken(t *testing.T) {
	f := newAuthFixture()
	user := &userdomain.User{ID: "u1", Role: userdomain.RoleUser}
	token := f.login(t, user, time.Hour)

	tampered := token[:len(token)-2] + "xx"
	// Register the tampered string as a session so rejection comes from
	// signature verification, not the session lookup.
	f.sessions.sessions[tampered] = f.sessions.sessions[token]

	rec, _ := doAuth(t, f, tampered)
	assertRejected(t, rec, http.StatusUnauthorized, "invalid token")
}

func TestAuthenticateDeletedUser(t *testing.T) {
	f := newAuthFixture()
	user := &userdomain.User{ID: "u1", Role: userdomain.RoleUser}
	token := f.login(t, user, time.Hour)
	delete(f.users.users, "u1")

	rec, _ := doAuth(t, f, token)
	assertRejected(t, rec, http.StatusUnauthorized, "user not found")
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireAdmin(next)

	cases := []struct {
		name string
		user *userdomain.User
		want int
	}{
		{"admin passes", &userdomain.User{ID: "a1", Role: userdomain.RoleAdmin}, http.StatusOK},
		{"user rejected", &userdomain.User{ID: "u1", Role: userdomain.RoleUser}, http.StatusForbidden},
		{"no user rejected", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := BearerToken(req); got != tc.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
