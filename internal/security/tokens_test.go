package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestProvider(ttl time.Duration) *TokenProvider {
	return NewTokenProvider([]byte("test-secret"), "test-issuer", "test-audience", ttl)
}

func TestTokenProvider_IssueAndVerify(t *testing.T) {
	p := newTestProvider(24 * time.Hour)

	token, exp, err := p.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := p.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "u1")
	}
	if claims.Email != "a@x.tg" {
		t.Errorf("Email = %q, want %q", claims.Email, "a@x.tg")
	}
	if claims.FiscalNumber != "F-1" {
		t.Errorf("FiscalNumber = %q, want %q", claims.FiscalNumber, "F-1")
	}
	if claims.Role != "user" {
		t.Errorf("Role = %q, want %q", claims.Role, "user")
	}
}

func TestTokenProvider_VerifyMalformed(t *testing.T) {
	p := newTestProvider(24 * time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := p.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): want ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenProvider_VerifyTamperedSignature(t *testing.T) {
	p := newTestProvider(24 * time.Hour)
	token, _, err := p.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Flip one byte of the signature segment.
	last := token[len(token)-1]
	altered := token[:len(token)-1]
	if last == 'A' {
		altered += "B"
	} else {
		altered += "A"
	}
	if _, err := p.Verify(altered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify tampered token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyWrongSecret(t *testing.T) {
	p := newTestProvider(24 * time.Hour)
	other := NewTokenProvider([]byte("other-secret"), "test-issuer", "test-audience", 24*time.Hour)
	token, _, err := other.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify with wrong secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyExpired(t *testing.T) {
	p := newTestProvider(-time.Minute)
	token, _, err := p.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyWrongIssuerAudience(t *testing.T) {
	p := newTestProvider(24 * time.Hour)

	otherIssuer := NewTokenProvider([]byte("test-secret"), "another-issuer", "test-audience", 24*time.Hour)
	token, _, _ := otherIssuer.Issue("u1", "a@x.tg", "F-1", "user")
	if _, err := p.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify wrong issuer: want ErrInvalidToken, got %v", err)
	}

	otherAud := NewTokenProvider([]byte("test-secret"), "test-issuer", "another-audience", 24*time.Hour)
	token, _, _ = otherAud.Issue("u1", "a@x.tg", "F-1", "user")
	if _, err := p.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify wrong audience: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_TokensDiffer(t *testing.T) {
	p := newTestProvider(24 * time.Hour)

	// Two back-to-back logins land in the same second, where iat/exp alone
	// cannot distinguish the tokens; the jti must.
	t1, _, err := p.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	t2, _, err := p.Issue("u1", "a@x.tg", "F-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens issued for identical claims should differ")
	}
	if strings.Count(t1, ".") != 2 {
		t.Errorf("token %q is not a three-segment JWT", t1)
	}

	c1, err := p.Verify(t1)
	if err != nil {
		t.Fatalf("Verify t1: %v", err)
	}
	c2, err := p.Verify(t2)
	if err != nil {
		t.Fatalf("Verify t2: %v", err)
	}
	if c1.ID == "" || c1.ID == c2.ID {
		t.Errorf("jti %q / %q: want non-empty and distinct", c1.ID, c2.ID)
	}
}
