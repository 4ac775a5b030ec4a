package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dak6000/ETax-Togo/internal/security"
	sessiondomain "github.com/Dak6000/ETax-Togo/internal/session/domain"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
	userrepo "github.com/Dak6000/ETax-Togo/internal/user/repository"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrInvalidCredentials      = errors.New("incorrect email or password")
	ErrEmailTaken              = errors.New("a user with this email already exists")
	ErrFiscalNumberTaken       = errors.New("a user with this fiscal number already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrCurrentPasswordMissing  = errors.New("current password is required to change the password")
	ErrCurrentPasswordMismatch = errors.New("current password is incorrect")
)

// FieldError describes one failed validation check on a named input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the itemized list of failed checks for one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	fields := make([]string, len(v))
	for i, fe := range v {
		fields[i] = fe.Field
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	Create(ctx context.Context, u *userdomain.User) error
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByFiscalNumber(ctx context.Context, fiscalNumber string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Replace(ctx context.Context, s *sessiondomain.Session) error
	DeleteByToken(ctx context.Context, token string) error
}

// AuthService implements registration, login, logout, and profile flows.
type AuthService struct {
	users      UserRepo
	sessions   SessionRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	sessionTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// sessionTTL bounds the server-side session expiry and matches the token TTL.
func NewAuthService(users UserRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
}

// AuthResult holds the outcome of Register or Login.
type AuthResult struct {
	User       *userdomain.User
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Password     string
	Address      string
	FiscalNumber string
	Sector       string
}

// Register validates the input, checks email and fiscal-number uniqueness,
// hashes the password, persists the user with role "user", and opens a
// session. Returns ValidationErrors, ErrEmailTaken, or ErrFiscalNumberTaken
// on the corresponding failures.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if verrs := validateRegistration(in); len(verrs) > 0 {
		return nil, verrs
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.users.GetByFiscalNumber(ctx, in.FiscalNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrFiscalNumberTaken
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hashed,
		Address:      strings.TrimSpace(in.Address),
		FiscalNumber: strings.TrimSpace(in.FiscalNumber),
		Sector:       strings.TrimSpace(in.Sector),
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Uniqueness is checked above, but a concurrent insert can still trip
		// the constraint; map it the same way.
		switch {
		case errors.Is(err, userrepo.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, userrepo.ErrDuplicateFiscalNumber):
			return nil, ErrFiscalNumberTaken
		}
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login authenticates with email and password and opens a session, replacing
// any prior session for the user (last login wins). A missing user and a
// wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// openSession issues a token for user and replaces the user's session with it.
func (s *AuthService) openSession(ctx context.Context, user *userdomain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, user.FiscalNumber, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	sess := &sessiondomain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:       user,
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: user.RedirectTarget(),
	}, nil
}

// Logout deletes the session matching token. Logging out an absent or
// already-expired token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

// Profile returns the user for id. Returns ErrUserNotFound when absent.
func (s *AuthService) Profile(ctx context.Context, userID string) (*userdomain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfileInput carries the profile-edit form fields. NewPassword is
// optional; when set, CurrentPassword must match the stored hash.
type UpdateProfileInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	FiscalNumber    string
	Sector          string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile rewrites the user's profile fields after re-checking email
// and fiscal-number uniqueness against other users, optionally rotating the
// password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*userdomain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if verrs := validateProfileUpdate(in); len(verrs) > 0 {
		return nil, verrs
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if other, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if other != nil && other.ID != userID {
		return nil, ErrEmailTaken
	}
	if other, err := s.users.GetByFiscalNumber(ctx, in.FiscalNumber); err != nil {
		return nil, err
	} else if other != nil && other.ID != userID {
		return nil, ErrFiscalNumberTaken
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, ErrCurrentPasswordMissing
		}
		if err := s.hasher.Compare(user.PasswordHash, []byte(in.CurrentPassword)); err != nil {
			return nil, ErrCurrentPasswordMismatch
		}
		hashed, err := s.hasher.Hash([]byte(in.NewPassword))
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Email = in.Email
	user.Phone = strings.TrimSpace(in.Phone)
	user.Address = strings.TrimSpace(in.Address)
	user.FiscalNumber = strings.TrimSpace(in.FiscalNumber)
	user.Sector = strings.TrimSpace(in.Sector)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, userrepo.ErrDuplicateFiscalNumber):
			return nil, ErrFiscalNumberTaken
		}
		return nil, err
	}
	return user, nil
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Togolese numbers: optional +228/228 prefix then eight digits.
	phonePattern = regexp.MustCompile(`^(\+228|228)?[0-9]{8}$`)
)

func validateRegistration(in RegisterInput) ValidationErrors {
	var verrs ValidationErrors
	if len(strings.TrimSpace(in.FirstName)) < 2 {
		verrs = append(verrs, FieldError{Field: "name", Message: "name must contain at least 2 characters"})
	}
	if len(strings.TrimSpace(in.LastName)) < 2 {
		verrs = append(verrs, FieldError{Field: "surname", Message: "surname must contain at least 2 characters"})
	}
	if !emailPattern.MatchString(in.Email) {
		verrs = append(verrs, FieldError{Field: "email", Message: "invalid email address"})
	}
	if !validPhone(in.Phone) {
		verrs = append(verrs, FieldError{Field: "phone", Message: "invalid Togolese phone number"})
	}
	if len(in.Password) < 6 {
		verrs = append(verrs, FieldError{Field: "password", Message: "password must contain at least 6 characters"})
	}
	if len(strings.TrimSpace(in.FiscalNumber)) < 5 {
		verrs = append(verrs, FieldError{Field: "fiscal_number", Message: "fiscal number must contain at least 5 characters"})
	}
	if strings.TrimSpace(in.Sector) == "" {
		verrs = append(verrs, FieldError{Field: "sector", Message: "business sector is required"})
	}
	return verrs
}

func validateProfileUpdate(in UpdateProfileInput) ValidationErrors {
	var verrs ValidationErrors
	if len(strings.TrimSpace(in.FirstName)) < 2 {
		verrs = append(verrs, FieldError{Field: "name", Message: "name must contain at least 2 characters"})
	}
	if len(strings.TrimSpace(in.LastName)) < 2 {
		verrs = append(verrs, FieldError{Field: "surname", Message: "surname must contain at least 2 characters"})
	}
	if !emailPattern.MatchString(in.Email) {
		verrs = append(verrs, FieldError{Field: "email", Message: "invalid email address"})
	}
	if !validPhone(in.Phone) {
		verrs = append(verrs, FieldError{Field: "phone", Message: "invalid Togolese phone number"})
	}
	if len(strings.TrimSpace(in.FiscalNumber)) < 5 {
		verrs = append(verrs, FieldError{Field: "fiscal_number", Message: "fiscal number must contain at least 5 characters"})
	}
	if strings.TrimSpace(in.Sector) == "" {
		verrs = append(verrs, FieldError{Field: "sector", Message: "business sector is required"})
	}
	if in.NewPassword != "" && len(in.NewPassword) < 6 {
		verrs = append(verrs, FieldError{Field: "password", Message: "new password must contain at least 6 characters"})
	}
	return verrs
}

// validPhone matches the Togolese phone pattern after stripping spaces, since
// numbers are commonly written in spaced groups.
func validPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(strings.TrimSpace(phone), " ", ""))
}
