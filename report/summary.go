package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/validation"
)

// YearMonth is a calendar month, comparable as year*12+month.
type YearMonth struct {
	Year  int
	Month int
}

// ParseYearMonth reads YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	if err := validation.ValidateYearMonth(s); err != nil {
		return YearMonth{}, err
	}
	t, _ := time.Parse("2006-01", s)
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

func (ym YearMonth) index() int { return ym.Year*12 + ym.Month - 1 }

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month) }

// SummaryRange selects payments by due date and optionally by apartment title.
type SummaryRange struct {
	From      YearMonth
	To        YearMonth
	Apartment string
}

// Summary totals the payments in a range.
type Summary struct {
	TotalAmount  float64
	PaidAmount   float64
	UnpaidAmount float64
	Count        int
	PaidCount    int
	UnpaidCount  int
	Payments     []client.Payment
}

// Summarize keeps payments whose due month lies in [From, To], both ends
// included. Payments with an unreadable due date are left out.
func Summarize(payments []client.Payment, r SummaryRange) Summary {
	var s Summary
	from, to := r.From.index(), r.To.index()
	for _, p := range payments {
		if r.Apartment != "" && p.ApartmentTitle != r.Apartment {
			continue
		}
		due, err := time.Parse(validation.DateLayout, p.DueDate)
		if err != nil {
			continue
		}
		idx := YearMonth{Year: due.Year(), Month: int(due.Month())}.index()
		if idx < from || idx > to {
			continue
		}

		amount := client.ParseAmount(p.Amount)
		s.TotalAmount += amount
		s.Count++
		if p.Paid {
			s.PaidAmount += amount
			s.PaidCount++
		} else {
			s.UnpaidAmount += amount
			s.UnpaidCount++
		}
		s.Payments = append(s.Payments, p)
	}
	return s
}

// YearlyIncome returns the paid amount for each month of year; index 0 is January.
func YearlyIncome(payments []client.Payment, year int) [12]float64 {
	var income [12]float64
	for _, p := range payments {
		if !p.Paid || p.Year != year || p.Month < 1 || p.Month > 12 {
			continue
		}
		income[p.Month-1] += client.ParseAmount(p.Amount)
	}
	return income
}

// WriteCSV exports the payments of a summary.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "tenant", "apartment", "amount", "status", "due_date"}); err != nil {
		return err
	}
	for _, p := range s.Payments {
		status := "unpaid"
		if p.Paid {
			status = "paid"
		} else if p.IsOverdue {
			status = "overdue"
		}
		row := []string{
			fmt.Sprintf("%d/%d", p.Month, p.Year),
			p.TenantName,
			p.ApartmentTitle,
			strconv.FormatFloat(client.ParseAmount(p.Amount), 'f', 2, 64),
			status,
			p.DueDate,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
