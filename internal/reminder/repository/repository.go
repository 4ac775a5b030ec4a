package repository

import (
	"context"

	"github.com/Dak6000/ETax-Togo/internal/reminder/domain"
)

// Repository defines persistence for payment reminders.
type Repository interface {
	Create(ctx context.Context, r *domain.Reminder) error
	ListByTax(ctx context.Context, taxID string) ([]*domain.Reminder, error)
}
