package domain

import (
	"errors"
	"time"
)

// User is a registered taxpayer (merchant) or administrator.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string // bcrypt hash; never serialized to clients
	Address      string
	FiscalNumber string // taxpayer identifier, unique, distinct from ID
	Sector       string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is the access tier gating route-level authorization.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string to a Role. Unknown values default to
// RoleUser so a corrupted row can never grant admin access.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.FiscalNumber == "" {
		return errors.New("fiscal number is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// RedirectTarget returns the post-login destination for the user's role.
func (u *User) RedirectTarget() string {
	if u.Role == RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}
