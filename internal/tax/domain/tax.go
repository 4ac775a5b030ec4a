package domain

import "time"

// Tax is a tax record accrued by a user.
type Tax struct {
	ID        string
	UserID    string
	Amount    float64
	Type      string
	Status    Status
	DueAt     time.Time
	PaidAt    *time.Time // nil while pending
	CreatedAt time.Time
}

// Status is the payment state of a tax record.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// ParseStatus maps a stored status string to a Status. Unknown values default
// to StatusPending so a corrupted row can never count as revenue.
func ParseStatus(s string) Status {
	if s == string(StatusPaid) {
		return StatusPaid
	}
	return StatusPending
}

// StatusTotals aggregates count and amount sum for one status.
type StatusTotals struct {
	Count int64
	Sum   float64
}

// RevenueRow is one bucket of the paid-revenue series. Month is 1–12 for
// monthly buckets and 0 for yearly buckets.
type RevenueRow struct {
	Year  int
	Month int
	Total float64
}

// UnpaidTax is a pending tax record joined with its owner, as shown on the
// admin overdue list.
type UnpaidTax struct {
	Tax
	OwnerFirstName    string
	OwnerLastName     string
	OwnerEmail        string
	OwnerPhone        string
	OwnerFiscalNumber string
	OwnerSector       string
}

// UserTaxCounts summarizes one user's tax records for the admin users list.
type UserTaxCounts struct {
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Sector      string
	CreatedAt   time.Time
	TotalTaxes  int64
	PaidTaxes   int64
	UnpaidTaxes int64
}

// Payment is a completed tax payment joined with its payer, for the admin
// activity feed.
type Payment struct {
	Amount         float64
	PaidAt         time.Time
	OwnerFirstName string
	OwnerLastName  string
	OwnerSector    string
}
