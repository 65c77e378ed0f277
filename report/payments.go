// Package report filters and aggregates backend data for dashboards and reports.
// Everything here is pure: callers fetch the data and pass in the clock.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/habedi/rentdesk/client"
)

// Payment filters.
const (
	FilterAll     = "all"
	FilterPaid    = "paid"
	FilterUnpaid  = "unpaid"
	FilterOverdue = "overdue"
)

// FilterPayments keeps the payments matching filter. Unknown filters keep everything.
func FilterPayments(payments []client.Payment, filter string) []client.Payment {
	out := make([]client.Payment, 0, len(payments))
	for _, p := range payments {
		switch filter {
		case FilterPaid:
			if !p.Paid {
				continue
			}
		case FilterUnpaid:
			if p.Paid {
				continue
			}
		case FilterOverdue:
			if !p.IsOverdue {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// PaymentTotals are counted over the whole list, not over a filtered view.
type PaymentTotals struct {
	Paid         float64
	Unpaid       float64
	PaidCount    int
	UnpaidCount  int
	OverdueCount int
}

func Totals(payments []client.Payment) PaymentTotals {
	var t PaymentTotals
	for _, p := range payments {
		amount := client.ParseAmount(p.Amount)
		if p.Paid {
			t.Paid += amount
			t.PaidCount++
		} else {
			t.Unpaid += amount
			t.UnpaidCount++
		}
		if p.IsOverdue {
			t.OverdueCount++
		}
	}
	return t
}

// YearGroup holds one year's payments, latest month first.
type YearGroup struct {
	Year     int
	Payments []client.Payment
}

// GroupByYear orders years newest first and months newest first within a year.
func GroupByYear(payments []client.Payment) []YearGroup {
	byYear := make(map[int][]client.Payment)
	for _, p := range payments {
		byYear[p.Year] = append(byYear[p.Year], p)
	}

	groups := make([]YearGroup, 0, len(byYear))
	for year, ps := range byYear {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Month > ps[j].Month })
		groups = append(groups, YearGroup{Year: year, Payments: ps})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Year > groups[j].Year })
	return groups
}

// MonthName returns the English month name, or the number for out-of-range values.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprint(month)
	}
	return time.Month(month).String()
}
