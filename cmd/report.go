package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/habedi/rentdesk/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show an overview of apartments, income and overdue rent",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			now := time.Now()
			d, err := report.LoadDashboard(cmd.Context(), s.api, now)
			if err != nil {
				fail(cmd, err)
				return
			}

			printFields(cmd.OutOrStdout(), [][2]string{
				{"Apartments", strconv.Itoa(d.TotalApartments)},
				{"Rented", strconv.Itoa(d.RentedApartments)},
				{"Income " + now.Format("January 2006"), money(d.MonthlyIncome)},
				{"Income " + now.Format("2006"), money(d.YearlyIncome)},
				{"Overdue payments", strconv.Itoa(d.OverdueCount)},
			})
			if len(d.Overdue) > 0 {
				cmd.Println("\nOverdue")
				renderPayments(cmd.OutOrStdout(), d.Overdue)
			}
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Income and tenant reports",
	}

	cmd.AddCommand(
		summaryReportCmd(),
		yearlyReportCmd(),
		historyReportCmd(),
	)

	return cmd
}

// summaryReportCmd totals payments due between two months, both included.
func summaryReportCmd() *cobra.Command {
	var from, to, apartment, csvPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize payments over a range of months",
		Run: func(cmd *cobra.Command, args []string) {
			now := time.Now()
			if from == "" {
				from = fmt.Sprintf("%04d-01", now.Year())
			}
			if to == "" {
				to = now.Format("2006-01")
			}
			r, err := summaryRange(from, to, apartment)
			if err != nil {
				fail(cmd, invalid(err))
				return
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			payments, err := s.api.ListPayments(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}
			sum := report.Summarize(payments, r)

			if csvPath != "" {
				if err := writeSummaryCSV(csvPath, sum); err != nil {
					fail(cmd, err)
					return
				}
				cmd.Printf("Exported %d payments to %s.\n", sum.Count, csvPath)
				return
			}

			cmd.Printf("Payments due %s to %s\n", r.From, r.To)
			printFields(cmd.OutOrStdout(), [][2]string{
				{"Payments", strconv.Itoa(sum.Count)},
				{"Total", money(sum.TotalAmount)},
				{"Paid", fmt.Sprintf("%s (%d)", money(sum.PaidAmount), sum.PaidCount)},
				{"Unpaid", fmt.Sprintf("%s (%d)", money(sum.UnpaidAmount), sum.UnpaidCount)},
			})
			if len(sum.Payments) > 0 {
				renderPayments(cmd.OutOrStdout(), sum.Payments)
			}
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First month, YYYY-MM (default January of this year)")
	cmd.Flags().StringVar(&to, "to", "", "Last month, YYYY-MM (default this month)")
	cmd.Flags().StringVarP(&apartment, "apartment", "a", "", "Only payments for the apartment with this title")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write the payments to this CSV file instead of printing them")

	return cmd
}

func summaryRange(from, to, apartment string) (report.SummaryRange, error) {
	f, err := report.ParseYearMonth(from)
	if err != nil {
		return report.SummaryRange{}, err
	}
	t, err := report.ParseYearMonth(to)
	if err != nil {
		return report.SummaryRange{}, err
	}
	if t.Year*12+t.Month < f.Year*12+f.Month {
		return report.SummaryRange{}, errors.New("--to must not be before --from")
	}
	return report.SummaryRange{From: f, To: t, Apartment: apartment}, nil
}

func writeSummaryCSV(path string, sum report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, sum); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("rows", sum.Count).Msg("Exported summary")
	return f.Close()
}

func yearlyReportCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Show paid income per month of a year",
		Run: func(cmd *cobra.Command, args []string) {
			if year == 0 {
				year = time.Now().Year()
			}
			if err := validation.ValidateYear(year); err != nil {
				fail(cmd, invalid(err))
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			payments, err := s.api.ListPayments(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}

			income := report.YearlyIncome(payments, year)
			var total float64
			table := newTable(cmd.OutOrStdout(), "Month", "Income")
			for i, v := range income {
				total += v
				table.Append([]string{report.MonthName(i + 1), money(v)})
			}
			table.SetFooter([]string{"Total", money(total)})
			table.Render()
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year (default this year)")

	return cmd
}

func historyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show current and past tenants with their payment totals",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			h, err := s.api.TenantHistory(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}

			cmd.Printf("Tenants: %d (current %d, past %d)\n", h.TotalTenants, h.CurrentTenants, h.PastTenants)
			cmd.Printf("Collected: %s  Pending: %s\n", money(h.TotalRentCollected), money(h.PendingPayments))
			if len(h.Tenants) == 0 {
				return
			}

			table := newTable(cmd.OutOrStdout(), "ID", "Name", "Apartment", "Contract", "Status", "Paid", "Unpaid")
			for _, t := range h.Tenants {
				end := "open-ended"
				if t.ContractEnd != nil && *t.ContractEnd != "" {
					end = *t.ContractEnd
				}
				table.Append([]string{
					strconv.Itoa(t.ID),
					t.FullName,
					orDash(t.Apartment),
					t.ContractStart + " → " + end,
					t.Status,
					fmt.Sprintf("%s (%d)", money(t.TotalPaid), t.PaidCount),
					fmt.Sprintf("%s (%d)", money(t.TotalUnpaid), t.UnpaidCount),
				})
			}
			table.Render()
		},
	}
}
