package report

import (
	"context"
	"time"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/pool"
)

// Dashboard is the landing overview.
type Dashboard struct {
	TotalApartments  int
	RentedApartments int
	MonthlyIncome    float64
	YearlyIncome     float64
	OverdueCount     int
	Overdue          []client.Payment
}

// BuildDashboard computes the overview for the month containing now.
func BuildDashboard(apartments []client.Apartment, payments []client.Payment, now time.Time) Dashboard {
	d := Dashboard{TotalApartments: len(apartments)}
	for _, a := range apartments {
		if a.Status == "rented" {
			d.RentedApartments++
		}
	}

	year, month := now.Year(), int(now.Month())
	for _, p := range payments {
		if p.Paid && p.Year == year {
			amount := client.ParseAmount(p.Amount)
			d.YearlyIncome += amount
			if p.Month == month {
				d.MonthlyIncome += amount
			}
		}
		if p.IsOverdue {
			d.OverdueCount++
			if !p.Paid {
				d.Overdue = append(d.Overdue, p)
			}
		}
	}
	return d
}

// Source is the slice of the backend client the loaders need.
type Source interface {
	ListApartments(ctx context.Context) ([]client.Apartment, error)
	ListPayments(ctx context.Context) ([]client.Payment, error)
}

// LoadDashboard fetches apartments and payments concurrently and builds the overview.
func LoadDashboard(ctx context.Context, src Source, now time.Time) (Dashboard, error) {
	var apartments []client.Apartment
	var payments []client.Payment
	err := pool.All(ctx,
		func(ctx context.Context) (err error) {
			apartments, err = src.ListApartments(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			payments, err = src.ListPayments(ctx)
			return err
		},
	)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(apartments, payments, now), nil
}

