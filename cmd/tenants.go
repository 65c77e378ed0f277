package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/habedi/rentdesk/report"
	"github.com/spf13/cobra"
)

func tenantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List and manage tenants and their contracts",
	}

	cmd.AddCommand(
		listTenantsCmd(),
		showTenantCmd(),
		createTenantCmd(),
		updateTenantCmd(),
		deleteTenantCmd(),
		contractsCmd(),
	)

	return cmd
}

func listTenantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tenants",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			tenants, err := s.api.ListTenants(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(tenants) == 0 {
				cmd.Println("No tenants found.")
				return
			}
			renderTenants(cmd.OutOrStdout(), tenants, time.Now())
		},
	}
}

func renderTenants(w io.Writer, tenants []client.Tenant, now time.Time) {
	table := newTable(w, "ID", "Name", "Apartment", "Rent", "Contract", "Status")
	for _, t := range tenants {
		table.Append([]string{
			strconv.Itoa(t.ID),
			t.FullName,
			orDash(t.ApartmentTitle),
			money(client.ParseAmount(t.MonthlyRent)),
			contractPeriod(t),
			report.ContractStatus(t, now),
		})
	}
	table.Render()
}

func contractPeriod(t client.Tenant) string {
	end := "open-ended"
	if t.ContractEnd != nil && *t.ContractEnd != "" {
		end = *t.ContractEnd
	}
	return t.ContractStart + " → " + end
}

func showTenantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [tenantID]",
		Short: "Show the details of a tenant",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("tenant", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			t, err := s.api.GetTenant(cmd.Context(), id)
			if err != nil {
				fail(cmd, err)
				return
			}

			printFields(cmd.OutOrStdout(), [][2]string{
				{"ID", strconv.Itoa(t.ID)},
				{"Name", t.FullName},
				{"Phone", orDash(t.Phone)},
				{"E-mail", orDash(t.Email)},
				{"Apartment", fmt.Sprintf("%s (%d)", orDash(t.ApartmentTitle), t.Apartment)},
				{"Address", orDash(t.ApartmentAddress)},
				{"Contract", contractPeriod(*t)},
				{"Status", report.ContractStatus(*t, time.Now())},
				{"Monthly rent", money(client.ParseAmount(t.MonthlyRent))},
				{"Due day", strconv.Itoa(t.PaymentDueDay)},
				{"Deposit", money(client.ParseAmount(t.Deposit))},
				{"Notes", orDash(t.Notes)},
			})
		},
	}
}

func createTenantCmd() *cobra.Command {
	var in client.Tenant
	var end string
	var rent, deposit float64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a tenant to an apartment",
		Run: func(cmd *cobra.Command, args []string) {
			if end != "" {
				in.ContractEnd = &end
			}
			in.MonthlyRent = strconv.FormatFloat(rent, 'f', 2, 64)
			in.Deposit = strconv.FormatFloat(deposit, 'f', 2, 64)
			if err := validateTenant(in, rent, deposit); err != nil {
				fail(cmd, invalid(err))
				return
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			t, err := s.api.CreateTenant(cmd.Context(), in)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Created tenant %d (%s).\n", t.ID, t.FullName)
		},
	}

	cmd.Flags().IntVarP(&in.Apartment, "apartment", "a", 0, "Apartment ID (required)")
	cmd.Flags().StringVarP(&in.FullName, "name", "n", "", "Full name (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&in.Email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&in.ContractStart, "start", "", "Contract start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "Contract end, YYYY-MM-DD; empty means open-ended")
	cmd.Flags().Float64Var(&rent, "rent", 0, "Monthly rent (required)")
	cmd.Flags().IntVar(&in.PaymentDueDay, "due-day", 1, "Day of the month rent is due")
	cmd.Flags().Float64Var(&deposit, "deposit", 0, "Deposit")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")

	return cmd
}

// updateTenantCmd loads the tenant, applies the flags that were set and saves it back.
func updateTenantCmd() *cobra.Command {
	var patch client.Tenant
	var end string
	var openEnded bool
	var rent, deposit float64

	cmd := &cobra.Command{
		Use:   "update [tenantID]",
		Short: "Change a tenant or their contract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("tenant", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			if cmd.Flags().NFlag() == 0 {
				fail(cmd, invalid(fmt.Errorf("nothing to update: set at least one flag")))
				return
			}
			if openEnded && cmd.Flags().Changed("end") {
				fail(cmd, invalid(fmt.Errorf("--end and --open-ended cannot be combined")))
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			t, err := s.api.GetTenant(cmd.Context(), id)
			if err != nil {
				fail(cmd, err)
				return
			}

			set := cmd.Flags().Changed
			if set("apartment") {
				t.Apartment = patch.Apartment
			}
			if set("name") {
				t.FullName = patch.FullName
			}
			if set("phone") {
				t.Phone = patch.Phone
			}
			if set("email") {
				t.Email = patch.Email
			}
			if set("start") {
				t.ContractStart = patch.ContractStart
			}
			if set("end") {
				t.ContractEnd = &end
			}
			if openEnded {
				t.ContractEnd = nil
			}
			if set("rent") {
				t.MonthlyRent = strconv.FormatFloat(rent, 'f', 2, 64)
			}
			if set("due-day") {
				t.PaymentDueDay = patch.PaymentDueDay
			}
			if set("deposit") {
				t.Deposit = strconv.FormatFloat(deposit, 'f', 2, 64)
			}
			if set("notes") {
				t.Notes = patch.Notes
			}
			if err := validateTenant(*t, client.ParseAmount(t.MonthlyRent), client.ParseAmount(t.Deposit)); err != nil {
				fail(cmd, invalid(err))
				return
			}

			updated, err := s.api.UpdateTenant(cmd.Context(), id, *t)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Updated tenant %d (%s).\n", updated.ID, updated.FullName)
		},
	}

	cmd.Flags().IntVarP(&patch.Apartment, "apartment", "a", 0, "Apartment ID")
	cmd.Flags().StringVarP(&patch.FullName, "name", "n", "", "Full name")
	cmd.Flags().StringVar(&patch.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&patch.Email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&patch.ContractStart, "start", "", "Contract start, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Contract end, YYYY-MM-DD")
	cmd.Flags().BoolVar(&openEnded, "open-ended", false, "Remove the contract end date")
	cmd.Flags().Float64Var(&rent, "rent", 0, "Monthly rent")
	cmd.Flags().IntVar(&patch.PaymentDueDay, "due-day", 0, "Day of the month rent is due")
	cmd.Flags().Float64Var(&deposit, "deposit", 0, "Deposit")
	cmd.Flags().StringVar(&patch.Notes, "notes", "", "Free-form notes")

	return cmd
}

func validateTenant(t client.Tenant, rent, deposit float64) error {
	if err := validation.ValidateID("apartment", t.Apartment); err != nil {
		return err
	}
	if err := validation.ValidateNonEmptyString("name", t.FullName); err != nil {
		return err
	}
	if err := validation.ValidateDate("contract start", t.ContractStart); err != nil {
		return err
	}
	if t.ContractEnd != nil {
		if err := validation.ValidateDate("contract end", *t.ContractEnd); err != nil {
			return err
		}
		if *t.ContractEnd < t.ContractStart {
			return fmt.Errorf("contract end %s is before contract start %s", *t.ContractEnd, t.ContractStart)
		}
	}
	if rent <= 0 {
		return fmt.Errorf("monthly rent must be positive, got %.2f", rent)
	}
	if deposit < 0 {
		return fmt.Errorf("deposit cannot be negative, got %.2f", deposit)
	}
	return validation.ValidateDueDay(t.PaymentDueDay)
}

func deleteTenantCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [tenantID]",
		Short: "Delete a tenant",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("tenant", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			if !yes && !confirm(cmd, bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Delete tenant %d?", id)) {
				cmd.Println("Aborted.")
				return
			}
			if err := s.api.DeleteTenant(cmd.Context(), id); err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Deleted tenant %d.\n", id)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// contractsCmd splits tenants into active, expired and upcoming contracts.
func contractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "Show active, expired and upcoming contracts",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			tenants, err := s.api.ListTenants(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}

			now := time.Now()
			c := report.SplitContracts(tenants, now)
			sections := []struct {
				title   string
				tenants []client.Tenant
			}{
				{"Active contracts", c.Active},
				{"Upcoming contracts", c.Future},
				{"Expired contracts", c.Expired},
			}
			for _, sec := range sections {
				cmd.Printf("%s (%d)\n", sec.title, len(sec.tenants))
				if len(sec.tenants) > 0 {
					renderTenants(cmd.OutOrStdout(), sec.tenants, now)
				}
				cmd.Println()
			}
		},
	}
}
