package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/habedi/rentdesk/report"
	"github.com/spf13/cobra"
)

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Track rent payments",
	}

	cmd.AddCommand(
		listPaymentsCmd(),
		createPaymentCmd(),
		updatePaymentCmd(),
		markPaidCmd(),
		markUnpaidCmd(),
	)

	return cmd
}

// listPaymentsCmd prints the filtered payments grouped by year. The totals
// line always covers every payment, whatever the filter.
func listPaymentsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments grouped by year",
		Run: func(cmd *cobra.Command, args []string) {
			if err := validation.ValidatePaymentFilter(filter); err != nil {
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

			t := report.Totals(payments)
			cmd.Printf("Paid: %s (%d)  Unpaid: %s (%d)  Overdue: %d\n",
				money(t.Paid), t.PaidCount, money(t.Unpaid), t.UnpaidCount, t.OverdueCount)

			filtered := report.FilterPayments(payments, filter)
			if len(filtered) == 0 {
				cmd.Println("No payments found.")
				return
			}
			for _, g := range report.GroupByYear(filtered) {
				cmd.Printf("\n%d\n", g.Year)
				renderPayments(cmd.OutOrStdout(), g.Payments)
			}
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", report.FilterAll, fmt.Sprintf("Show only %v payments", validation.PaymentFilters))

	return cmd
}

func paymentStatus(p client.Payment) string {
	switch {
	case p.Paid:
		return "paid"
	case p.IsOverdue:
		return "overdue"
	default:
		return "unpaid"
	}
}

func renderPayments(w io.Writer, payments []client.Payment) {
	table := newTable(w, "ID", "Month", "Tenant", "Apartment", "Amount", "Due", "Status", "Paid on")
	for _, p := range payments {
		table.Append([]string{
			strconv.Itoa(p.ID),
			report.MonthName(p.Month),
			orDash(p.TenantName),
			orDash(p.ApartmentTitle),
			money(client.ParseAmount(p.Amount)),
			p.DueDate,
			paymentStatus(p),
			derefOrDash(p.PaidDate),
		})
	}
	table.Render()
}

func createPaymentCmd() *cobra.Command {
	var in client.Payment
	var amount float64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a rent installment",
		Run: func(cmd *cobra.Command, args []string) {
			if err := validatePayment(in, amount); err != nil {
				fail(cmd, invalid(err))
				return
			}
			in.Amount = strconv.FormatFloat(amount, 'f', 2, 64)

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			p, err := s.api.CreatePayment(cmd.Context(), in)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Created payment %d for %s %d.\n", p.ID, report.MonthName(p.Month), p.Year)
		},
	}

	cmd.Flags().IntVarP(&in.Tenant, "tenant", "t", 0, "Tenant ID (required)")
	cmd.Flags().IntVarP(&in.Month, "month", "m", 0, "Month, 1-12 (required)")
	cmd.Flags().IntVarP(&in.Year, "year", "y", 0, "Year (required)")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount (required)")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "Due date, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&in.Paid, "paid", false, "Record the payment as already paid")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")

	return cmd
}

// updatePaymentCmd sends only the fields whose flags were set.
func updatePaymentCmd() *cobra.Command {
	var amount float64
	var due, method, receipt, notes string
	var paid bool

	cmd := &cobra.Command{
		Use:   "update [paymentID]",
		Short: "Change the amount, due date or payment details of a payment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("payment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}

			var changes client.PaymentUpdate
			set := cmd.Flags().Changed
			if set("amount") {
				if amount <= 0 {
					fail(cmd, invalid(fmt.Errorf("amount must be positive, got %.2f", amount)))
					return
				}
				a := strconv.FormatFloat(amount, 'f', 2, 64)
				changes.Amount = &a
			}
			if set("due") {
				if err := validation.ValidateDate("due date", due); err != nil {
					fail(cmd, invalid(err))
					return
				}
				changes.DueDate = &due
			}
			if set("method") {
				if err := validation.ValidatePaymentMethod(method); err != nil {
					fail(cmd, invalid(err))
					return
				}
				changes.PaymentMethod = &method
			}
			if set("receipt") {
				changes.ReceiptNumber = &receipt
			}
			if set("notes") {
				changes.Notes = &notes
			}
			if set("paid") {
				changes.Paid = &paid
			}
			if changes == (client.PaymentUpdate{}) {
				fail(cmd, invalid(fmt.Errorf("nothing to update: set at least one flag")))
				return
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			p, err := s.api.UpdatePayment(cmd.Context(), id, changes)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Updated payment %d (%s, %s).\n", p.ID, money(client.ParseAmount(p.Amount)), paymentStatus(*p))
		},
	}

	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&method, "method", "m", "", fmt.Sprintf("Payment method %v", validation.PaymentMethods))
	cmd.Flags().StringVarP(&receipt, "receipt", "r", "", "Receipt number")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&paid, "paid", false, "Paid flag; --paid=false marks it unpaid")

	return cmd
}

func validatePayment(p client.Payment, amount float64) error {
	if err := validation.ValidateID("tenant", p.Tenant); err != nil {
		return err
	}
	if err := validation.ValidateMonth(p.Month); err != nil {
		return err
	}
	if err := validation.ValidateYear(p.Year); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %.2f", amount)
	}
	return validation.ValidateDate("due date", p.DueDate)
}

func markPaidCmd() *cobra.Command {
	var details client.MarkPaidRequest

	cmd := &cobra.Command{
		Use:   "mark-paid [paymentID]",
		Short: "Mark a payment as paid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("payment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			if details.PaymentMethod != "" {
				if err := validation.ValidatePaymentMethod(details.PaymentMethod); err != nil {
					fail(cmd, invalid(err))
					return
				}
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			p, err := s.api.MarkPaid(cmd.Context(), id, details)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Payment %d marked as paid on %s.\n", p.ID, derefOrDash(p.PaidDate))
		},
	}

	cmd.Flags().StringVarP(&details.PaymentMethod, "method", "m", "", fmt.Sprintf("Payment method %v", validation.PaymentMethods))
	cmd.Flags().StringVarP(&details.ReceiptNumber, "receipt", "r", "", "Receipt number")
	cmd.Flags().StringVar(&details.Notes, "notes", "", "Free-form notes")

	return cmd
}

func markUnpaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-unpaid [paymentID]",
		Short: "Mark a payment as unpaid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("payment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			p, err := s.api.MarkUnpaid(cmd.Context(), id)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Payment %d marked as unpaid.\n", p.ID)
		},
	}
}
