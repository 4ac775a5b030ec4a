package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Dak6000/ETax-Togo/internal/user/domain"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, address, fiscal_number, sector, role, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the user. Unique violations on email or fiscal number are
// mapped to ErrDuplicateEmail / ErrDuplicateFiscalNumber.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash,
		u.Address, u.FiscalNumber, u.Sector, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByFiscalNumber returns the user for fiscalNumber, or nil if not found.
func (r *PostgresRepository) GetByFiscalNumber(ctx context.Context, fiscalNumber string) (*domain.User, error) {
	return r.getBy(ctx, "fiscal_number", fiscalNumber)
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	row := r.db.QueryRowContext(ctx, query, value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

// Update rewrites the user's mutable fields. Unique violations are mapped to
// the duplicate sentinels.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, phone = $5,
		    password_hash = $6, address = $7, fiscal_number = $8, sector = $9,
		    updated_at = $10
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash,
		u.Address, u.FiscalNumber, u.Sector, u.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// ListRecent returns up to limit users, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int32) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountNonAdmin returns the number of users whose role is not admin.
func (r *PostgresRepository) CountNonAdmin(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role <> 'admin'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.PasswordHash, &u.Address, &u.FiscalNumber, &u.Sector, &role,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.ParseRole(role)
	return &u, nil
}

// mapUniqueViolation translates Postgres unique-violation errors (23505) on
// the users table into the duplicate sentinels, keyed by constraint name.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "fiscal"):
			return ErrDuplicateFiscalNumber
		}
	}
	return fmt.Errorf("write user: %w", err)
}
