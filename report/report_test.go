package report_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func samplePayments() []client.Payment {
	return []client.Payment{
		{ID: 1, Month: 4, Year: 2024, Amount: "400.00", DueDate: "2024-04-05", Paid: true, ApartmentTitle: "Flat A", TenantName: "Eleni"},
		{ID: 2, Month: 5, Year: 2024, Amount: "400.00", DueDate: "2024-05-05", Paid: true, ApartmentTitle: "Flat A", TenantName: "Eleni"},
		{ID: 3, Month: 5, Year: 2024, Amount: "550.50", DueDate: "2024-05-01", Paid: false, IsOverdue: true, ApartmentTitle: "House B", TenantName: "Kostas"},
		{ID: 4, Month: 12, Year: 2023, Amount: "390", DueDate: "2023-12-05", Paid: true, ApartmentTitle: "Flat A", TenantName: "Eleni"},
		{ID: 5, Month: 6, Year: 2024, Amount: "bogus", DueDate: "2024-06-05", Paid: false, ApartmentTitle: "House B", TenantName: "Kostas"},
	}
}

func ids(payments []client.Payment) []int {
	out := make([]int, 0, len(payments))
	for _, p := range payments {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterPayments(t *testing.T) {
	ps := samplePayments()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(report.FilterPayments(ps, report.FilterAll)))
	assert.Equal(t, []int{1, 2, 4}, ids(report.FilterPayments(ps, report.FilterPaid)))
	assert.Equal(t, []int{3, 5}, ids(report.FilterPayments(ps, report.FilterUnpaid)))
	assert.Equal(t, []int{3}, ids(report.FilterPayments(ps, report.FilterOverdue)))
}

func TestTotals(t *testing.T) {
	got := report.Totals(samplePayments())
	want := report.PaymentTotals{Paid: 1190, Unpaid: 550.5, PaidCount: 3, UnpaidCount: 2, OverdueCount: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupByYear(t *testing.T) {
	groups := report.GroupByYear(samplePayments())
	require.Len(t, groups, 2)
	assert.Equal(t, 2024, groups[0].Year)
	assert.Equal(t, 2023, groups[1].Year)

	var months []int
	for _, p := range groups[0].Payments {
		months = append(months, p.Month)
	}
	assert.Equal(t, []int{6, 5, 5, 4}, months)
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", report.MonthName(1))
	assert.Equal(t, "December", report.MonthName(12))
	assert.Equal(t, "13", report.MonthName(13))
}

func TestSummarize(t *testing.T) {
	from, err := report.ParseYearMonth("2024-04")
	require.NoError(t, err)
	to, err := report.ParseYearMonth("2024-05")
	require.NoError(t, err)

	s := report.Summarize(samplePayments(), report.SummaryRange{From: from, To: to})
	assert.Equal(t, []int{1, 2, 3}, ids(s.Payments))
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.PaidCount)
	assert.Equal(t, 1, s.UnpaidCount)
	assert.InDelta(t, 1350.5, s.TotalAmount, 1e-9)
	assert.InDelta(t, 800, s.PaidAmount, 1e-9)
	assert.InDelta(t, 550.5, s.UnpaidAmount, 1e-9)

	onlyB := report.Summarize(samplePayments(), report.SummaryRange{From: from, To: to, Apartment: "House B"})
	assert.Equal(t, []int{3}, ids(onlyB.Payments))
}

func TestSummarize_RangeAcrossYears(t *testing.T) {
	s := report.Summarize(samplePayments(), report.SummaryRange{
		From: report.YearMonth{Year: 2023, Month: 12},
		To:   report.YearMonth{Year: 2024, Month: 4},
	})
	assert.Equal(t, []int{1, 4}, ids(s.Payments))
}

func TestParseYearMonth(t *testing.T) {
	ym, err := report.ParseYearMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, report.YearMonth{Year: 2024, Month: 3}, ym)
	assert.Equal(t, "2024-03", ym.String())

	_, err = report.ParseYearMonth("03/2024")
	assert.Error(t, err)
}

func TestYearlyIncome(t *testing.T) {
	income := report.YearlyIncome(samplePayments(), 2024)
	var want [12]float64
	want[3] = 400
	want[4] = 400
	if diff := cmp.Diff(want, income); diff != "" {
		t.Errorf("YearlyIncome mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV(t *testing.T) {
	s := report.Summarize(samplePayments(), report.SummaryRange{
		From: report.YearMonth{Year: 2024, Month: 5},
		To:   report.YearMonth{Year: 2024, Month: 5},
	})
	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, s))

	want := "month,tenant,apartment,amount,status,due_date\n" +
		"5/2024,Eleni,Flat A,400.00,paid,2024-05-05\n" +
		"5/2024,Kostas,House B,550.50,overdue,2024-05-01\n"
	assert.Equal(t, want, buf.String())
}

func TestBuildDashboard(t *testing.T) {
	apartments := []client.Apartment{
		{ID: 1, Status: "rented"},
		{ID: 2, Status: "vacant"},
		{ID: 3, Status: "rented"},
		{ID: 4, Status: "maintenance"},
	}
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

	d := report.BuildDashboard(apartments, samplePayments(), now)
	assert.Equal(t, 4, d.TotalApartments)
	assert.Equal(t, 2, d.RentedApartments)
	assert.InDelta(t, 400, d.MonthlyIncome, 1e-9)
	assert.InDelta(t, 800, d.YearlyIncome, 1e-9)
	assert.Equal(t, 1, d.OverdueCount)
	assert.Equal(t, []int{3}, ids(d.Overdue))
}

type fakeSource struct {
	apartments []client.Apartment
	payments   []client.Payment
	err        error
}

func (f fakeSource) ListApartments(context.Context) ([]client.Apartment, error) {
	return f.apartments, nil
}

func (f fakeSource) ListPayments(context.Context) ([]client.Payment, error) {
	return f.payments, f.err
}

func TestLoadDashboard(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	src := fakeSource{apartments: []client.Apartment{{ID: 1, Status: "rented"}}, payments: samplePayments()}

	d, err := report.LoadDashboard(context.Background(), src, now)
	require.NoError(t, err)
	assert.Equal(t, 1, d.RentedApartments)
	assert.Equal(t, 1, d.OverdueCount)

	boom := errors.New("boom")
	_, err = report.LoadDashboard(context.Background(), fakeSource{err: boom}, now)
	assert.ErrorIs(t, err, boom)
}

func TestGroupByArea(t *testing.T) {
	apartments := []client.Apartment{
		{ID: 1, Area: "Kifisia"},
		{ID: 2, City: "Athens"},
		{ID: 3},
		{ID: 4, Region: "Attica"},
		{ID: 5, Area: "Kifisia", City: "Athens"},
		{ID: 6, Area: "  "},
	}

	groups := report.GroupByArea(apartments)
	got := make(map[string][]int)
	var order []string
	for _, g := range groups {
		order = append(order, g.Name)
		for _, a := range g.Apartments {
			got[g.Name] = append(got[g.Name], a.ID)
		}
	}

	assert.Equal(t, []string{"Athens", "Attica", "Kifisia", report.OtherArea}, order)
	want := map[string][]int{
		"Athens":         {2},
		"Attica":         {4},
		"Kifisia":        {1, 5},
		report.OtherArea: {3, 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GroupByArea mismatch (-want +got):\n%s", diff)
	}
}

func TestContractStatus(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		tenant client.Tenant
		want   string
	}{
		{"active", client.Tenant{ContractStart: "2024-01-01", ContractEnd: ptr("2024-12-31")}, report.ContractActive},
		{"ends today", client.Tenant{ContractStart: "2024-01-01", ContractEnd: ptr("2024-05-20")}, report.ContractActive},
		{"expired", client.Tenant{ContractStart: "2023-01-01", ContractEnd: ptr("2024-05-19")}, report.ContractExpired},
		{"future", client.Tenant{ContractStart: "2024-06-01", ContractEnd: ptr("2025-05-31")}, report.ContractFuture},
		{"open ended", client.Tenant{ContractStart: "2020-01-01"}, report.ContractActive},
		{"starts today", client.Tenant{ContractStart: "2024-05-20"}, report.ContractActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.ContractStatus(tt.tenant, now))
		})
	}
}

func TestSplitContracts(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	tenants := []client.Tenant{
		{ID: 1, ContractStart: "2024-01-01", ContractEnd: ptr("2024-12-31")},
		{ID: 2, ContractStart: "2022-01-01", ContractEnd: ptr("2023-01-01")},
		{ID: 3, ContractStart: "2030-01-01"},
	}
	c := report.SplitContracts(tenants, now)
	assert.Len(t, c.Active, 1)
	assert.Len(t, c.Expired, 1)
	assert.Len(t, c.Future, 1)
	assert.Equal(t, 2, c.Expired[0].ID)
}
