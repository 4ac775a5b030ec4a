package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	reminderdomain "github.com/Dak6000/ETax-Togo/internal/reminder/domain"
	taxdomain "github.com/Dak6000/ETax-Togo/internal/tax/domain"
	taxrepo "github.com/Dak6000/ETax-Togo/internal/tax/repository"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

// Sentinel errors for the admin service; handlers map them to HTTP statuses.
var (
	ErrTaxNotFound       = errors.New("tax record not found")
	ErrUnsupportedExport = errors.New("unsupported export type")
)

// TaxRepo is the minimal tax repository needed by the admin service.
type TaxRepo interface {
	GetByID(ctx context.Context, id string) (*taxdomain.Tax, error)
	MarkPaid(ctx context.Context, id string, at time.Time) error
	TotalsByStatus(ctx context.Context, status taxdomain.Status) (taxdomain.StatusTotals, error)
	PaidRevenueByMonth(ctx context.Context, since time.Time) ([]taxdomain.RevenueRow, error)
	PaidRevenueByYear(ctx context.Context, since time.Time) ([]taxdomain.RevenueRow, error)
	ListUnpaid(ctx context.Context, sector string) ([]*taxdomain.UnpaidTax, error)
	UserTaxCounts(ctx context.Context, limit int32) ([]*taxdomain.UserTaxCounts, error)
	RecentPayments(ctx context.Context, limit int32) ([]*taxdomain.Payment, error)
}

// UserRepo is the minimal user repository needed by the admin service.
type UserRepo interface {
	CountNonAdmin(ctx context.Context) (int64, error)
	ListRecent(ctx context.Context, limit int32) ([]*userdomain.User, error)
}

// ReminderRepo is the minimal reminder repository needed by the admin service.
type ReminderRepo interface {
	Create(ctx context.Context, r *reminderdomain.Reminder) error
}

// AdminService implements the admin dashboard: aggregate statistics, revenue
// series, activity feed, overdue tracking, and exports.
type AdminService struct {
	taxes     TaxRepo
	users     UserRepo
	reminders ReminderRepo
	now       func() time.Time
}

// NewAdminService returns an AdminService with the given dependencies.
func NewAdminService(taxes TaxRepo, users UserRepo, reminders ReminderRepo) *AdminService {
	return &AdminService{
		taxes:     taxes,
		users:     users,
		reminders: reminders,
		now:       time.Now,
	}
}

// DashboardStats holds the four headline dashboard figures.
type DashboardStats struct {
	TotalUsers   int64   `json:"totalUsers"`
	TotalRevenue float64 `json:"totalRevenue"`
	UnpaidTaxes  int64   `json:"unpaidTaxes"`
	PaymentRate  int     `json:"paymentRate"` // percent of records paid, rounded
}

// Stats computes the dashboard headline figures. PaymentRate is 0 when no
// tax records exist.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	totalUsers, err := s.users.CountNonAdmin(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.taxes.TotalsByStatus(ctx, taxdomain.StatusPaid)
	if err != nil {
		return nil, err
	}
	pending, err := s.taxes.TotalsByStatus(ctx, taxdomain.StatusPending)
	if err != nil {
		return nil, err
	}

	rate := 0
	if total := paid.Count + pending.Count; total > 0 {
		rate = int(float64(paid.Count)/float64(total)*100 + 0.5)
	}
	return &DashboardStats{
		TotalUsers:   totalUsers,
		TotalRevenue: paid.Sum,
		UnpaidTaxes:  pending.Count,
		PaymentRate:  rate,
	}, nil
}

// RevenueSeries is a labeled revenue chart dataset. Data values are in
// thousands of FCFA.
type RevenueSeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Revenue returns the paid-revenue series for the given period: "monthly"
// covers the last 12 calendar months, "yearly" the last 5 years. Any other
// period value falls back to monthly. Buckets with no payments are 0.
func (s *AdminService) Revenue(ctx context.Context, period string) (*RevenueSeries, error) {
	now := s.now().UTC()
	if period == "yearly" {
		since := time.Date(now.Year()-4, time.January, 1, 0, 0, 0, 0, time.UTC)
		rows, err := s.taxes.PaidRevenueByYear(ctx, since)
		if err != nil {
			return nil, err
		}
		byYear := make(map[int]float64, len(rows))
		for _, r := range rows {
			byYear[r.Year] = r.Total
		}
		series := &RevenueSeries{}
		for y := now.Year() - 4; y <= now.Year(); y++ {
			series.Labels = append(series.Labels, strconv.Itoa(y))
			series.Data = append(series.Data, byYear[y]/1000)
		}
		return series, nil
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := firstOfMonth.AddDate(0, -11, 0)
	rows, err := s.taxes.PaidRevenueByMonth(ctx, since)
	if err != nil {
		return nil, err
	}
	type ym struct{ y, m int }
	byMonth := make(map[ym]float64, len(rows))
	for _, r := range rows {
		byMonth[ym{r.Year, r.Month}] = r.Total
	}
	series := &RevenueSeries{}
	for i := 11; i >= 0; i-- {
		bucket := firstOfMonth.AddDate(0, -i, 0)
		series.Labels = append(series.Labels, monthLabels[bucket.Month()-1])
		series.Data = append(series.Data, byMonth[ym{bucket.Year(), int(bucket.Month())}]/1000)
	}
	return series, nil
}

// Activity is one entry of the admin activity feed.
type Activity struct {
	Message    string    `json:"message"`
	TimeAgo    string    `json:"timeAgo"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RecentActivity merges recent tax payments and user registrations, newest
// first, capped at limit.
func (s *AdminService) RecentActivity(ctx context.Context, limit int32) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	payments, err := s.taxes.RecentPayments(ctx, limit)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	activities := make([]Activity, 0, len(payments)+len(users))
	for _, p := range payments {
		activities = append(activities, Activity{
			Message:    fmt.Sprintf("Payment of %.0f FCFA by %s %s", p.Amount, p.OwnerFirstName, p.OwnerLastName),
			TimeAgo:    timeAgo(now, p.PaidAt),
			OccurredAt: p.PaidAt,
		})
	}
	for _, u := range users {
		activities = append(activities, Activity{
			Message:    fmt.Sprintf("New user registered: %s %s (%s)", u.FirstName, u.LastName, u.Sector),
			TimeAgo:    timeAgo(now, u.CreatedAt),
			OccurredAt: u.CreatedAt,
		})
	}

	// Merge the two feeds newest first.
	for i := 1; i < len(activities); i++ {
		for j := i; j > 0 && activities[j].OccurredAt.After(activities[j-1].OccurredAt); j-- {
			activities[j], activities[j-1] = activities[j-1], activities[j]
		}
	}
	if int32(len(activities)) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

// ComplianceStatus classifies a user by their number of unpaid records.
type ComplianceStatus string

const (
	ComplianceUpToDate   ComplianceStatus = "up_to_date"
	ComplianceLate       ComplianceStatus = "late"
	ComplianceDelinquent ComplianceStatus = "delinquent"
)

// UserSummary is one row of the admin users list.
type UserSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Surname     string           `json:"surname"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	Sector      string           `json:"sector"`
	CreatedAt   time.Time        `json:"createdAt"`
	TotalTaxes  int64            `json:"totalTaxes"`
	PaidTaxes   int64            `json:"paidTaxes"`
	UnpaidTaxes int64            `json:"unpaidTaxes"`
	Status      ComplianceStatus `json:"status"`
}

// UsersList returns up to limit users with their tax counts and compliance
// status, newest first.
func (s *AdminService) UsersList(ctx context.Context, limit int32) ([]UserSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	counts, err := s.taxes.UserTaxCounts(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, len(counts))
	for i, c := range counts {
		out[i] = UserSummary{
			ID:          c.UserID,
			Name:        c.FirstName,
			Surname:     c.LastName,
			Email:       c.Email,
			Phone:       c.Phone,
			Sector:      c.Sector,
			CreatedAt:   c.CreatedAt,
			TotalTaxes:  c.TotalTaxes,
			PaidTaxes:   c.PaidTaxes,
			UnpaidTaxes: c.UnpaidTaxes,
			Status:      complianceStatus(c.UnpaidTaxes),
		}
	}
	return out, nil
}

// OverdueSeverity classifies an unpaid record by how long it is overdue.
type OverdueSeverity string

const (
	SeverityWarning  OverdueSeverity = "warning"  // up to a week overdue
	SeverityDanger   OverdueSeverity = "danger"   // up to a month overdue
	SeverityCritical OverdueSeverity = "critical" // more than a month overdue
)

// UnpaidTaxItem is one row of the admin overdue list.
type UnpaidTaxItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Surname      string          `json:"surname"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	FiscalNumber string          `json:"fiscalNumber"`
	Sector       string          `json:"sector"`
	Amount       float64         `json:"amount"`
	Type         string          `json:"type"`
	DueAt        time.Time       `json:"dueAt"`
	DaysOverdue  int             `json:"daysOverdue"`
	Severity     OverdueSeverity `json:"severity"`
}

// UnpaidTaxes returns pending tax records with owner details, days overdue,
// and severity, oldest due first. sector filters by owner sector; "" or
// "all" disables the filter.
func (s *AdminService) UnpaidTaxes(ctx context.Context, sector string) ([]UnpaidTaxItem, error) {
	unpaid, err := s.taxes.ListUnpaid(ctx, sector)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]UnpaidTaxItem, len(unpaid))
	for i, ut := range unpaid {
		days := int(now.Sub(ut.DueAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		out[i] = UnpaidTaxItem{
			ID:           ut.ID,
			Name:         ut.OwnerFirstName,
			Surname:      ut.OwnerLastName,
			Email:        ut.OwnerEmail,
			Phone:        ut.OwnerPhone,
			FiscalNumber: ut.OwnerFiscalNumber,
			Sector:       ut.OwnerSector,
			Amount:       ut.Amount,
			Type:         ut.Type,
			DueAt:        ut.DueAt,
			DaysOverdue:  days,
			Severity:     overdueSeverity(days),
		}
	}
	return out, nil
}

// MarkTaxPaid sets the record's status to paid. Returns ErrTaxNotFound when
// no record matches.
func (s *AdminService) MarkTaxPaid(ctx context.Context, taxID string) error {
	err := s.taxes.MarkPaid(ctx, taxID, s.now().UTC())
	if errors.Is(err, taxrepo.ErrNotFound) {
		return ErrTaxNotFound
	}
	return err
}

// SendReminder records that a payment reminder was sent for the tax record.
// Returns ErrTaxNotFound when the record does not exist.
func (s *AdminService) SendReminder(ctx context.Context, taxID string) error {
	tax, err := s.taxes.GetByID(ctx, taxID)
	if err != nil {
		return err
	}
	if tax == nil {
		return ErrTaxNotFound
	}
	now := s.now().UTC()
	return s.reminders.Create(ctx, &reminderdomain.Reminder{
		ID:        uuid.New().String(),
		TaxID:     taxID,
		SentAt:    now,
		Status:    "sent",
		CreatedAt: now,
	})
}

// exportUserLimit caps the users export. The users table is small (one row
// per registered merchant); the cap only guards against a runaway query.
const exportUserLimit = 10000

// ExportData is a named tabular dataset ready for CSV encoding.
type ExportData struct {
	Filename string
	Header   []string
	Rows     [][]string
}

// Export builds the dataset for the given export type: "unpaid_taxes" or
// "users". Returns ErrUnsupportedExport for anything else.
func (s *AdminService) Export(ctx context.Context, exportType string) (*ExportData, error) {
	switch exportType {
	case "unpaid_taxes":
		items, err := s.UnpaidTaxes(ctx, "")
		if err != nil {
			return nil, err
		}
		data := &ExportData{
			Filename: "unpaid_taxes.csv",
			Header:   []string{"Full Name", "Sector", "Phone", "Amount Due", "Tax Type", "Due Date", "Days Overdue"},
		}
		for _, it := range items {
			data.Rows = append(data.Rows, []string{
				it.Name + " " + it.Surname,
				it.Sector,
				it.Phone,
				strconv.FormatFloat(it.Amount, 'f', -1, 64),
				it.Type,
				it.DueAt.Format("2006-01-02"),
				strconv.Itoa(it.DaysOverdue),
			})
		}
		return data, nil

	case "users":
		users, err := s.users.ListRecent(ctx, exportUserLimit)
		if err != nil {
			return nil, err
		}
		data := &ExportData{
			Filename: "merchants.csv",
			Header:   []string{"Name", "Surname", "Email", "Phone", "Sector", "Fiscal Number", "Registered At"},
		}
		for _, u := range users {
			data.Rows = append(data.Rows, []string{
				u.FirstName,
				u.LastName,
				u.Email,
				u.Phone,
				u.Sector,
				u.FiscalNumber,
				u.CreatedAt.Format("2006-01-02"),
			})
		}
		return data, nil
	}
	return nil, ErrUnsupportedExport
}

func complianceStatus(unpaid int64) ComplianceStatus {
	switch {
	case unpaid == 0:
		return ComplianceUpToDate
	case unpaid <= 2:
		return ComplianceLate
	default:
		return ComplianceDelinquent
	}
}

func overdueSeverity(days int) OverdueSeverity {
	switch {
	case days <= 7:
		return SeverityWarning
	case days <= 30:
		return SeverityDanger
	default:
		return SeverityCritical
	}
}

// timeAgo humanizes the distance between now and t for the activity feed.
func timeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
