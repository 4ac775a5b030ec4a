package service

import (
	"context"
	"errors"
	"testing"
	"time"

	reminderdomain "github.com/Dak6000/ETax-Togo/internal/reminder/domain"
	taxdomain "github.com/Dak6000/ETax-Togo/internal/tax/domain"
	taxrepo "github.com/Dak6000/ETax-Togo/internal/tax/repository"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

type stubTaxRepo struct {
	taxes     map[string]*taxdomain.Tax
	totals    map[taxdomain.Status]taxdomain.StatusTotals
	monthly   []taxdomain.RevenueRow
	yearly    []taxdomain.RevenueRow
	unpaid    []*taxdomain.UnpaidTax
	counts    []*taxdomain.UserTaxCounts
	payments  []*taxdomain.Payment
	lastPaid  string
	lastPaidT time.Time
}

func (s *stubTaxRepo) GetByID(_ context.Context, id string) (*taxdomain.Tax, error) {
	return s.taxes[id], nil
}

func (s *stubTaxRepo) MarkPaid(_ context.Context, id string, at time.Time) error {
	if _, ok := s.taxes[id]; !ok {
		return taxrepo.ErrNotFound
	}
	s.lastPaid, s.lastPaidT = id, at
	return nil
}

func (s *stubTaxRepo) TotalsByStatus(_ context.Context, status taxdomain.Status) (taxdomain.StatusTotals, error) {
	return s.totals[status], nil
}

func (s *stubTaxRepo) PaidRevenueByMonth(_ context.Context, _ time.Time) ([]taxdomain.RevenueRow, error) {
	return s.monthly, nil
}

func (s *stubTaxRepo) PaidRevenueByYear(_ context.Context, _ time.Time) ([]taxdomain.RevenueRow, error) {
	return s.yearly, nil
}

func (s *stubTaxRepo) ListUnpaid(_ context.Context, _ string) ([]*taxdomain.UnpaidTax, error) {
	return s.unpaid, nil
}

func (s *stubTaxRepo) UserTaxCounts(_ context.Context, _ int32) ([]*taxdomain.UserTaxCounts, error) {
	return s.counts, nil
}

func (s *stubTaxRepo) RecentPayments(_ context.Context, _ int32) ([]*taxdomain.Payment, error) {
	return s.payments, nil
}

type stubUserRepo struct {
	count  int64
	recent []*userdomain.User
}

func (s *stubUserRepo) CountNonAdmin(_ context.Context) (int64, error) { return s.count, nil }

func (s *stubUserRepo) ListRecent(_ context.Context, _ int32) ([]*userdomain.User, error) {
	return s.recent, nil
}

type stubReminderRepo struct {
	created []*reminderdomain.Reminder
}

func (s *stubReminderRepo) Create(_ context.Context, r *reminderdomain.Reminder) error {
	s.created = append(s.created, r)
	return nil
}

// fixedNow pins the service clock so bucket and overdue math is deterministic.
var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestService(taxes *stubTaxRepo, users *stubUserRepo, reminders *stubReminderRepo) *AdminService {
	if taxes == nil {
		taxes = &stubTaxRepo{taxes: map[string]*taxdomain.Tax{}}
	}
	if users == nil {
		users = &stubUserRepo{}
	}
	if reminders == nil {
		reminders = &stubReminderRepo{}
	}
	svc := NewAdminService(taxes, users, reminders)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestStats(t *testing.T) {
	taxes := &stubTaxRepo{totals: map[taxdomain.Status]taxdomain.StatusTotals{
		taxdomain.StatusPaid:    {Count: 2, Sum: 75000},
		taxdomain.StatusPending: {Count: 1, Sum: 25000},
	}}
	svc := newTestService(taxes, &stubUserRepo{count: 12}, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 12 {
		t.Errorf("TotalUsers = %d, want 12", stats.TotalUsers)
	}
	if stats.TotalRevenue != 75000 {
		t.Errorf("TotalRevenue = %v, want 75000", stats.TotalRevenue)
	}
	if stats.UnpaidTaxes != 1 {
		t.Errorf("UnpaidTaxes = %d, want 1", stats.UnpaidTaxes)
	}
	if stats.PaymentRate != 67 {
		t.Errorf("PaymentRate = %d, want 67", stats.PaymentRate)
	}
}

func TestStatsNoRecords(t *testing.T) {
	svc := newTestService(&stubTaxRepo{totals: map[taxdomain.Status]taxdomain.StatusTotals{}}, nil, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PaymentRate != 0 {
		t.Errorf("PaymentRate = %d, want 0 with no records", stats.PaymentRate)
	}
}

func TestRevenueMonthly(t *testing.T) {
	taxes := &stubTaxRepo{monthly: []taxdomain.RevenueRow{
		{Year: 2025, Month: 6, Total: 50000},
		{Year: 2025, Month: 1, Total: 20000},
	}}
	svc := newTestService(taxes, nil, nil)

	series, err := svc.Revenue(context.Background(), "monthly")
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if len(series.Labels) != 12 || len(series.Data) != 12 {
		t.Fatalf("got %d labels / %d points, want 12", len(series.Labels), len(series.Data))
	}
	// Window is Jul 2024 through Jun 2025.
	if series.Labels[0] != "Jul" || series.Labels[11] != "Jun" {
		t.Errorf("labels = %v, want Jul..Jun", series.Labels)
	}
	if series.Data[11] != 50 {
		t.Errorf("Jun 2025 = %v, want 50 (thousands)", series.Data[11])
	}
	if series.Data[6] != 20 {
		t.Errorf("Jan 2025 = %v, want 20 (thousands)", series.Data[6])
	}
	if series.Data[0] != 0 {
		t.Errorf("Jul 2024 = %v, want 0 for empty bucket", series.Data[0])
	}
}

func TestRevenueYearly(t *testing.T) {
	taxes := &stubTaxRepo{yearly: []taxdomain.RevenueRow{
		{Year: 2025, Total: 100000},
		{Year: 2022, Total: 30000},
	}}
	svc := newTestService(taxes, nil, nil)

	series, err := svc.Revenue(context.Background(), "yearly")
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	wantLabels := []string{"2021", "2022", "2023", "2024", "2025"}
	for i, l := range wantLabels {
		if series.Labels[i] != l {
			t.Fatalf("labels = %v, want %v", series.Labels, wantLabels)
		}
	}
	wantData := []float64{0, 30, 0, 0, 100}
	for i, d := range wantData {
		if series.Data[i] != d {
			t.Fatalf("data = %v, want %v", series.Data, wantData)
		}
	}
}

func TestRecentActivityMergesNewestFirst(t *testing.T) {
	taxes := &stubTaxRepo{payments: []*taxdomain.Payment{
		{Amount: 15000, PaidAt: fixedNow.Add(-2 * time.Hour), OwnerFirstName: "Kossi", OwnerLastName: "Mensah"},
	}}
	users := &stubUserRepo{recent: []*userdomain.User{
		{FirstName: "Afi", LastName: "Lawson", Sector: "Commerce", CreatedAt: fixedNow.Add(-30 * time.Minute)},
		{FirstName: "Yao", LastName: "Agbeko", Sector: "Services", CreatedAt: fixedNow.Add(-3 * time.Hour)},
	}}
	svc := newTestService(taxes, users, nil)

	feed, err := svc.RecentActivity(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("got %d entries, want 3", len(feed))
	}
	if feed[0].Message != "New user registered: Afi Lawson (Commerce)" {
		t.Errorf("feed[0] = %q", feed[0].Message)
	}
	if feed[1].Message != "Payment of 15000 FCFA by Kossi Mensah" {
		t.Errorf("feed[1] = %q", feed[1].Message)
	}
	if feed[0].TimeAgo != "30 minutes ago" {
		t.Errorf("feed[0].TimeAgo = %q", feed[0].TimeAgo)
	}
	if feed[1].TimeAgo != "2 hours ago" {
		t.Errorf("feed[1].TimeAgo = %q", feed[1].TimeAgo)
	}
}

func TestRecentActivityLimit(t *testing.T) {
	users := &stubUserRepo{recent: []*userdomain.User{
		{FirstName: "A", CreatedAt: fixedNow.Add(-1 * time.Minute)},
		{FirstName: "B", CreatedAt: fixedNow.Add(-2 * time.Minute)},
		{FirstName: "C", CreatedAt: fixedNow.Add(-3 * time.Minute)},
	}}
	svc := newTestService(nil, users, nil)

	feed, err := svc.RecentActivity(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("got %d entries, want 2", len(feed))
	}
}

func TestUsersListStatus(t *testing.T) {
	taxes := &stubTaxRepo{counts: []*taxdomain.UserTaxCounts{
		{UserID: "u1", FirstName: "Kossi", UnpaidTaxes: 0},
		{UserID: "u2", FirstName: "Afi", UnpaidTaxes: 2},
		{UserID: "u3", FirstName: "Yao", UnpaidTaxes: 3},
	}}
	svc := newTestService(taxes, nil, nil)

	users, err := svc.UsersList(context.Background(), 10)
	if err != nil {
		t.Fatalf("UsersList: %v", err)
	}
	want := []ComplianceStatus{ComplianceUpToDate, ComplianceLate, ComplianceDelinquent}
	for i, w := range want {
		if users[i].Status != w {
			t.Errorf("users[%d].Status = %q, want %q", i, users[i].Status, w)
		}
	}
}

func TestUnpaidTaxesSeverity(t *testing.T) {
	taxes := &stubTaxRepo{unpaid: []*taxdomain.UnpaidTax{
		{Tax: taxdomain.Tax{ID: "t1", Amount: 10000, DueAt: fixedNow.AddDate(0, 0, -3)}, OwnerFirstName: "Kossi"},
		{Tax: taxdomain.Tax{ID: "t2", Amount: 20000, DueAt: fixedNow.AddDate(0, 0, -15)}},
		{Tax: taxdomain.Tax{ID: "t3", Amount: 30000, DueAt: fixedNow.AddDate(0, 0, -45)}},
		{Tax: taxdomain.Tax{ID: "t4", Amount: 5000, DueAt: fixedNow.AddDate(0, 0, 5)}},
	}}
	svc := newTestService(taxes, nil, nil)

	items, err := svc.UnpaidTaxes(context.Background(), "")
	if err != nil {
		t.Fatalf("UnpaidTaxes: %v", err)
	}
	wantDays := []int{3, 15, 45, 0}
	wantSev := []OverdueSeverity{SeverityWarning, SeverityDanger, SeverityCritical, SeverityWarning}
	for i := range items {
		if items[i].DaysOverdue != wantDays[i] {
			t.Errorf("items[%d].DaysOverdue = %d, want %d", i, items[i].DaysOverdue, wantDays[i])
		}
		if items[i].Severity != wantSev[i] {
			t.Errorf("items[%d].Severity = %q, want %q", i, items[i].Severity, wantSev[i])
		}
	}
}

func TestMarkTaxPaid(t *testing.T) {
	taxes := &stubTaxRepo{taxes: map[string]*taxdomain.Tax{
		"t1": {ID: "t1", Status: taxdomain.StatusPending},
	}}
	svc := newTestService(taxes, nil, nil)

	if err := svc.MarkTaxPaid(context.Background(), "t1"); err != nil {
		t.Fatalf("MarkTaxPaid: %v", err)
	}
	if taxes.lastPaid != "t1" {
		t.Errorf("marked %q, want t1", taxes.lastPaid)
	}
	if !taxes.lastPaidT.Equal(fixedNow) {
		t.Errorf("paid at %v, want %v", taxes.lastPaidT, fixedNow)
	}

	if err := svc.MarkTaxPaid(context.Background(), "missing"); !errors.Is(err, ErrTaxNotFound) {
		t.Errorf("got %v, want ErrTaxNotFound", err)
	}
}

func TestSendReminder(t *testing.T) {
	taxes := &stubTaxRepo{taxes: map[string]*taxdomain.Tax{
		"t1": {ID: "t1", Status: taxdomain.StatusPending},
	}}
	reminders := &stubReminderRepo{}
	svc := newTestService(taxes, nil, reminders)

	if err := svc.SendReminder(context.Background(), "t1"); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	if len(reminders.created) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders.created))
	}
	r := reminders.created[0]
	if r.TaxID != "t1" || r.Status != "sent" || r.ID == "" {
		t.Errorf("unexpected reminder %+v", r)
	}

	if err := svc.SendReminder(context.Background(), "missing"); !errors.Is(err, ErrTaxNotFound) {
		t.Errorf("got %v, want ErrTaxNotFound", err)
	}
}

func TestExportUnpaidTaxes(t *testing.T) {
	taxes := &stubTaxRepo{unpaid: []*taxdomain.UnpaidTax{
		{
			Tax:            taxdomain.Tax{ID: "t1", Amount: 12500, Type: "TVA", DueAt: fixedNow.AddDate(0, 0, -10)},
			OwnerFirstName: "Kossi", OwnerLastName: "Mensah", OwnerPhone: "90123456", OwnerSector: "Commerce",
		},
	}}
	svc := newTestService(taxes, nil, nil)

	data, err := svc.Export(context.Background(), "unpaid_taxes")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if data.Filename != "unpaid_taxes.csv" {
		t.Errorf("Filename = %q", data.Filename)
	}
	if len(data.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(data.Rows))
	}
	row := data.Rows[0]
	if row[0] != "Kossi Mensah" || row[3] != "12500" || row[6] != "10" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestExportUsers(t *testing.T) {
	users := &stubUserRepo{recent: []*userdomain.User{
		{FirstName: "Afi", LastName: "Lawson", Email: "afi@example.tg", FiscalNumber: "TG12345", Sector: "Commerce", CreatedAt: fixedNow},
	}}
	svc := newTestService(nil, users, nil)

	data, err := svc.Export(context.Background(), "users")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if data.Filename != "merchants.csv" {
		t.Errorf("Filename = %q", data.Filename)
	}
	if data.Rows[0][2] != "afi@example.tg" || data.Rows[0][6] != "2025-06-15" {
		t.Errorf("unexpected row %v", data.Rows[0])
	}
}

func TestExportUnsupported(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if _, err := svc.Export(context.Background(), "everything"); !errors.Is(err, ErrUnsupportedExport) {
		t.Errorf("got %v, want ErrUnsupportedExport", err)
	}
}
