package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/tax/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tax repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the tax record. The record must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tax) error {
	const query = `
		INSERT INTO taxes (id, user_id, amount, tax_type, status, due_at, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var paidAt sql.NullTime
	if t.PaidAt != nil {
		paidAt = sql.NullTime{Time: *t.PaidAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Amount, t.Type, string(t.Status), t.DueAt, paidAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tax: %w", err)
	}
	return nil
}

// GetByID returns the tax record for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tax, error) {
	const query = `
		SELECT id, user_id, amount, tax_type, status, due_at, paid_at, created_at
		FROM taxes WHERE id = $1`
	t, err := scanTax(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tax: %w", err)
	}
	return t, nil
}

// ListByUser returns all tax records owned by userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Tax, error) {
	const query = `
		SELECT id, user_id, amount, tax_type, status, due_at, paid_at, created_at
		FROM taxes WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tax
	for rows.Next() {
		t, err := scanTax(rows)
		if err != nil {
			return nil, fmt.Errorf("list taxes: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkPaid sets the record to paid with the given payment time. Returns
// ErrNotFound when no row matches.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE taxes SET status = 'paid', paid_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark tax paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark tax paid: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TotalsByStatus returns the record count and amount sum for status.
func (r *PostgresRepository) TotalsByStatus(ctx context.Context, status domain.Status) (domain.StatusTotals, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM taxes WHERE status = $1`
	var t domain.StatusTotals
	if err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&t.Count, &t.Sum); err != nil {
		return domain.StatusTotals{}, fmt.Errorf("tax totals: %w", err)
	}
	return t, nil
}

// PaidRevenueByMonth returns per-calendar-month paid totals since the given time.
func (r *PostgresRepository) PaidRevenueByMonth(ctx context.Context, since time.Time) ([]domain.RevenueRow, error) {
	const query = `
		SELECT EXTRACT(YEAR FROM paid_at)::int, EXTRACT(MONTH FROM paid_at)::int, SUM(amount)
		FROM taxes
		WHERE status = 'paid' AND paid_at >= $1
		GROUP BY 1, 2
		ORDER BY 1, 2`
	return r.queryRevenue(ctx, query, since, true)
}

// PaidRevenueByYear returns per-year paid totals since the given time.
func (r *PostgresRepository) PaidRevenueByYear(ctx context.Context, since time.Time) ([]domain.RevenueRow, error) {
	const query = `
		SELECT EXTRACT(YEAR FROM paid_at)::int, SUM(amount)
		FROM taxes
		WHERE status = 'paid' AND paid_at >= $1
		GROUP BY 1
		ORDER BY 1`
	return r.queryRevenue(ctx, query, since, false)
}

func (r *PostgresRepository) queryRevenue(ctx context.Context, query string, since time.Time, monthly bool) ([]domain.RevenueRow, error) {
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("revenue series: %w", err)
	}
	defer rows.Close()

	var out []domain.RevenueRow
	for rows.Next() {
		var row domain.RevenueRow
		if monthly {
			err = rows.Scan(&row.Year, &row.Month, &row.Total)
		} else {
			err = rows.Scan(&row.Year, &row.Total)
		}
		if err != nil {
			return nil, fmt.Errorf("revenue series: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListUnpaid returns pending records joined with their owners, oldest due
// first. sector filters by owner sector; "" or "all" disables the filter.
func (r *PostgresRepository) ListUnpaid(ctx context.Context, sector string) ([]*domain.UnpaidTax, error) {
	query := `
		SELECT t.id, t.user_id, t.amount, t.tax_type, t.status, t.due_at, t.paid_at, t.created_at,
		       u.first_name, u.last_name, u.email, u.phone, u.fiscal_number, u.sector
		FROM taxes t
		JOIN users u ON u.id = t.user_id
		WHERE t.status = 'pending'`
	var args []any
	if sector != "" && sector != "all" {
		query += ` AND u.sector = $1`
		args = append(args, sector)
	}
	query += ` ORDER BY t.due_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unpaid taxes: %w", err)
	}
	defer rows.Close()

	var out []*domain.UnpaidTax
	for rows.Next() {
		var ut domain.UnpaidTax
		var status string
		var paidAt sql.NullTime
		if err := rows.Scan(&ut.ID, &ut.UserID, &ut.Amount, &ut.Type, &status,
			&ut.DueAt, &paidAt, &ut.CreatedAt,
			&ut.OwnerFirstName, &ut.OwnerLastName, &ut.OwnerEmail,
			&ut.OwnerPhone, &ut.OwnerFiscalNumber, &ut.OwnerSector); err != nil {
			return nil, fmt.Errorf("list unpaid taxes: %w", err)
		}
		ut.Status = domain.ParseStatus(status)
		if paidAt.Valid {
			ut.PaidAt = &paidAt.Time
		}
		out = append(out, &ut)
	}
	return out, rows.Err()
}

// UserTaxCounts returns per-user record counts for up to limit users, newest first.
func (r *PostgresRepository) UserTaxCounts(ctx context.Context, limit int32) ([]*domain.UserTaxCounts, error) {
	const query = `
		SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.sector, u.created_at,
		       COUNT(t.id),
		       COUNT(t.id) FILTER (WHERE t.status = 'paid'),
		       COUNT(t.id) FILTER (WHERE t.status = 'pending')
		FROM users u
		LEFT JOIN taxes t ON t.user_id = u.id
		WHERE u.role = 'user'
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("user tax counts: %w", err)
	}
	defer rows.Close()

	var out []*domain.UserTaxCounts
	for rows.Next() {
		var c domain.UserTaxCounts
		if err := rows.Scan(&c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
			&c.Sector, &c.CreatedAt, &c.TotalTaxes, &c.PaidTaxes, &c.UnpaidTaxes); err != nil {
			return nil, fmt.Errorf("user tax counts: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// RecentPayments returns the most recent paid records with their payers.
func (r *PostgresRepository) RecentPayments(ctx context.Context, limit int32) ([]*domain.Payment, error) {
	const query = `
		SELECT t.amount, t.paid_at, u.first_name, u.last_name, u.sector
		FROM taxes t
		JOIN users u ON u.id = t.user_id
		WHERE t.status = 'paid' AND t.paid_at IS NOT NULL
		ORDER BY t.paid_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent payments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.Amount, &p.PaidAt, &p.OwnerFirstName, &p.OwnerLastName, &p.OwnerSector); err != nil {
			return nil, fmt.Errorf("recent payments: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTax(row rowScanner) (*domain.Tax, error) {
	var t domain.Tax
	var status string
	var paidAt sql.NullTime
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &status, &t.DueAt, &paidAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.ParseStatus(status)
	if paidAt.Valid {
		t.PaidAt = &paidAt.Time
	}
	return &t, nil
}
