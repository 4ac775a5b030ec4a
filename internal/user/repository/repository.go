package repository

import (
	"context"
	"errors"

	"github.com/Dak6000/ETax-Togo/internal/user/domain"
)

// Duplicate-key sentinels surfaced when a unique constraint on users is violated.
var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateFiscalNumber = errors.New("fiscal number already registered")
)

// Repository defines persistence for users.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByFiscalNumber(ctx context.Context, fiscalNumber string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	ListRecent(ctx context.Context, limit int32) ([]*domain.User, error)
	CountNonAdmin(ctx context.Context) (int64, error)
}
