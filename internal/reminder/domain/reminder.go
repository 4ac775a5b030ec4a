package domain

import "time"

// Reminder records that a payment reminder was sent for an unpaid tax record.
type Reminder struct {
	ID        string
	TaxID     string
	SentAt    time.Time
	Status    string // currently always "sent"
	CreatedAt time.Time
}
