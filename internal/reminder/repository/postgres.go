package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dak6000/ETax-Togo/internal/reminder/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a reminder repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the reminder. The reminder must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, rem *domain.Reminder) error {
	const query = `
		INSERT INTO reminders (id, tax_id, sent_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, rem.ID, rem.TaxID, rem.SentAt, rem.Status, rem.CreatedAt); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// ListByTax returns reminders sent for taxID, newest first.
func (r *PostgresRepository) ListByTax(ctx context.Context, taxID string) ([]*domain.Reminder, error) {
	const query = `
		SELECT id, tax_id, sent_at, status, created_at
		FROM reminders WHERE tax_id = $1
		ORDER BY sent_at DESC`
	rows, err := r.db.QueryContext(ctx, query, taxID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		var rem domain.Reminder
		if err := rows.Scan(&rem.ID, &rem.TaxID, &rem.SentAt, &rem.Status, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("list reminders: %w", err)
		}
		out = append(out, &rem)
	}
	return out, rows.Err()
}
