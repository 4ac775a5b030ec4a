package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/tax/domain"
)

// ErrNotFound is returned by MarkPaid when no tax record matches the id.
var ErrNotFound = errors.New("tax record not found")

// Repository defines persistence and aggregate queries for tax records.
type Repository interface {
	Create(ctx context.Context, t *domain.Tax) error
	GetByID(ctx context.Context, id string) (*domain.Tax, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Tax, error)
	// MarkPaid sets the record's status to paid and stamps the payment time.
	// Returns ErrNotFound when no row matches.
	MarkPaid(ctx context.Context, id string, at time.Time) error
	TotalsByStatus(ctx context.Context, status domain.Status) (domain.StatusTotals, error)
	// PaidRevenueByMonth returns per-calendar-month paid totals since the given time.
	PaidRevenueByMonth(ctx context.Context, since time.Time) ([]domain.RevenueRow, error)
	// PaidRevenueByYear returns per-year paid totals since the given time.
	PaidRevenueByYear(ctx context.Context, since time.Time) ([]domain.RevenueRow, error)
	// ListUnpaid returns pending records joined with their owners, oldest due
	// first, optionally filtered by owner sector ("" or "all" means no filter).
	ListUnpaid(ctx context.Context, sector string) ([]*domain.UnpaidTax, error)
	// UserTaxCounts returns per-user record counts for up to limit users, newest first.
	UserTaxCounts(ctx context.Context, limit int32) ([]*domain.UserTaxCounts, error)
	// RecentPayments returns the most recent paid records with their payers.
	RecentPayments(ctx context.Context, limit int32) ([]*domain.Payment, error)
}
