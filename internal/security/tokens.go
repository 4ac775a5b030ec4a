package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, has a bad
	// signature, has expired, or carries the wrong issuer or audience.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds the JWT claims embedded in an issued token: the user id
// (subject), email, fiscal number, and role.
type Claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	FiscalNumber string `json:"fiscal_number"`
	Role         string `json:"role"`
}

// TokenProvider issues and verifies HS256-signed tokens bound to a user
// identity and role. The signing secret is symmetric and process-wide.
type TokenProvider struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given secret.
// issuer and audience are set on claims and checked on verification; ttl
// bounds the embedded expiry.
func NewTokenProvider(secret []byte, issuer, audience string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

// Issue signs a token embedding the user id, email, fiscal number, and role,
// expiring ttl from now. Returns the token string and its expiry.
func (p *TokenProvider) Issue(userID, email, fiscalNumber, role string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every token unique even when two logins land in the
			// same second; session replacement relies on token inequality.
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:        email,
		FiscalNumber: fiscalNumber,
		Role:         role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses and validates the token (signature, exp, iss, aud) and
// returns its claims. The embedded expiry is checked here independently of
// any session-store expiry check.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
