package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/pkg/validation"
	"github.com/habedi/rentdesk/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func apartmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apartments",
		Aliases: []string{"apt"},
		Short:   "List and manage apartments",
	}

	cmd.AddCommand(
		listApartmentsCmd(),
		showApartmentCmd(),
		createApartmentCmd(),
		updateApartmentCmd(),
		deleteApartmentCmd(),
	)

	return cmd
}

func listApartmentsCmd() *cobra.Command {
	var byArea bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your apartments",
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			apartments, err := s.api.ListApartments(cmd.Context())
			if err != nil {
				fail(cmd, err)
				return
			}
			if len(apartments) == 0 {
				cmd.Println("No apartments found.")
				return
			}

			if !byArea {
				renderApartments(cmd.OutOrStdout(), apartments)
				return
			}
			for _, g := range report.GroupByArea(apartments) {
				cmd.Printf("\n%s (%d)\n", g.Name, len(g.Apartments))
				renderApartments(cmd.OutOrStdout(), g.Apartments)
			}
			log.Info().Msgf("Listed %d apartments.", len(apartments))
		},
	}

	cmd.Flags().BoolVarP(&byArea, "by-area", "a", false, "Group apartments by area, city or region")

	return cmd
}

func renderApartments(w io.Writer, apartments []client.Apartment) {
	table := newTable(w, "ID", "Title", "Address", "m²", "Type", "Status", "Area")
	for _, a := range apartments {
		table.Append([]string{
			strconv.Itoa(a.ID),
			a.Title,
			a.Address,
			strconv.Itoa(a.SquareMeters),
			orDash(a.PropertyType),
			orDash(a.Status),
			orDash(a.Area),
		})
	}
	table.Render()
}

func showApartmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [apartmentID]",
		Short: "Show the details of an apartment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("apartment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			a, err := s.api.GetApartment(cmd.Context(), id)
			if err != nil {
				fail(cmd, err)
				return
			}

			printFields(cmd.OutOrStdout(), [][2]string{
				{"ID", strconv.Itoa(a.ID)},
				{"Title", a.Title},
				{"Address", a.Address},
				{"Square meters", strconv.Itoa(a.SquareMeters)},
				{"Property type", orDash(a.PropertyType)},
				{"Status", orDash(a.Status)},
				{"Rented", yesNo(a.IsRented)},
				{"Floor", intOrDash(a.Floor)},
				{"Year built", intOrDash(a.YearBuilt)},
				{"Area", orDash(a.Area)},
				{"City", orDash(a.City)},
				{"Region", orDash(a.Region)},
				{"Notes", orDash(a.Notes)},
				{"Created", orDash(a.CreatedAt)},
			})
		},
	}
}

func createApartmentCmd() *cobra.Command {
	var in client.Apartment
	var floor, yearBuilt int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a new apartment",
		Run: func(cmd *cobra.Command, args []string) {
			if err := validateApartment(in); err != nil {
				fail(cmd, invalid(err))
				return
			}
			if cmd.Flags().Changed("floor") {
				in.Floor = &floor
			}
			if cmd.Flags().Changed("year-built") {
				in.YearBuilt = &yearBuilt
			}

			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			a, err := s.api.CreateApartment(cmd.Context(), in)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Created apartment %d (%s).\n", a.ID, a.Title)
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Title of the apartment (required)")
	cmd.Flags().StringVar(&in.Address, "address", "", "Street address (required)")
	cmd.Flags().IntVar(&in.SquareMeters, "sqm", 0, "Size in square meters")
	cmd.Flags().StringVar(&in.PropertyType, "type", "apartment", fmt.Sprintf("Property type %v", validation.PropertyTypes))
	cmd.Flags().StringVar(&in.Status, "status", "vacant", fmt.Sprintf("Status %v", validation.ApartmentStatuses))
	cmd.Flags().IntVar(&floor, "floor", 0, "Floor number")
	cmd.Flags().IntVar(&yearBuilt, "year-built", 0, "Year of construction")
	cmd.Flags().StringVar(&in.Area, "area", "", "Neighbourhood")
	cmd.Flags().StringVar(&in.City, "city", "", "City")
	cmd.Flags().StringVar(&in.Region, "region", "", "Region")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")

	return cmd
}

// updateApartmentCmd loads the apartment, applies the flags that were set and saves it back.
func updateApartmentCmd() *cobra.Command {
	var patch client.Apartment
	var floor, yearBuilt int
	var rented bool

	cmd := &cobra.Command{
		Use:   "update [apartmentID]",
		Short: "Change the details of an apartment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("apartment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			if cmd.Flags().NFlag() == 0 {
				fail(cmd, invalid(fmt.Errorf("nothing to update: set at least one flag")))
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			a, err := s.api.GetApartment(cmd.Context(), id)
			if err != nil {
				fail(cmd, err)
				return
			}

			set := cmd.Flags().Changed
			if set("title") {
				a.Title = patch.Title
			}
			if set("address") {
				a.Address = patch.Address
			}
			if set("sqm") {
				a.SquareMeters = patch.SquareMeters
			}
			if set("type") {
				a.PropertyType = patch.PropertyType
			}
			if set("status") {
				a.Status = patch.Status
			}
			if set("rented") {
				a.IsRented = rented
			}
			if set("floor") {
				a.Floor = &floor
			}
			if set("year-built") {
				a.YearBuilt = &yearBuilt
			}
			if set("area") {
				a.Area = patch.Area
			}
			if set("city") {
				a.City = patch.City
			}
			if set("region") {
				a.Region = patch.Region
			}
			if set("notes") {
				a.Notes = patch.Notes
			}
			if a.PropertyType == "" {
				a.PropertyType = "apartment"
			}
			if a.Status == "" {
				a.Status = "vacant"
			}
			if err := validateApartment(*a); err != nil {
				fail(cmd, invalid(err))
				return
			}

			updated, err := s.api.UpdateApartment(cmd.Context(), id, *a)
			if err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Updated apartment %d (%s).\n", updated.ID, updated.Title)
		},
	}

	cmd.Flags().StringVarP(&patch.Title, "title", "t", "", "Title of the apartment")
	cmd.Flags().StringVar(&patch.Address, "address", "", "Street address")
	cmd.Flags().IntVar(&patch.SquareMeters, "sqm", 0, "Size in square meters")
	cmd.Flags().StringVar(&patch.PropertyType, "type", "", fmt.Sprintf("Property type %v", validation.PropertyTypes))
	cmd.Flags().StringVar(&patch.Status, "status", "", fmt.Sprintf("Status %v", validation.ApartmentStatuses))
	cmd.Flags().BoolVar(&rented, "rented", false, "Whether the apartment is rented")
	cmd.Flags().IntVar(&floor, "floor", 0, "Floor number")
	cmd.Flags().IntVar(&yearBuilt, "year-built", 0, "Year of construction")
	cmd.Flags().StringVar(&patch.Area, "area", "", "Neighbourhood")
	cmd.Flags().StringVar(&patch.City, "city", "", "City")
	cmd.Flags().StringVar(&patch.Region, "region", "", "Region")
	cmd.Flags().StringVar(&patch.Notes, "notes", "", "Free-form notes")

	return cmd
}

func validateApartment(a client.Apartment) error {
	if err := validation.ValidateNonEmptyString("title", a.Title); err != nil {
		return err
	}
	if err := validation.ValidateNonEmptyString("address", a.Address); err != nil {
		return err
	}
	if a.SquareMeters < 0 {
		return fmt.Errorf("square meters cannot be negative, got %d", a.SquareMeters)
	}
	if err := validation.ValidatePropertyType(a.PropertyType); err != nil {
		return err
	}
	return validation.ValidateApartmentStatus(a.Status)
}

func deleteApartmentCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [apartmentID]",
		Short: "Delete an apartment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID("apartment", args[0])
			if err != nil {
				fail(cmd, err)
				return
			}
			s, ok := requireSession(cmd)
			if !ok {
				return
			}
			if !yes && !confirm(cmd, bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Delete apartment %d?", id)) {
				cmd.Println("Aborted.")
				return
			}
			if err := s.api.DeleteApartment(cmd.Context(), id); err != nil {
				fail(cmd, err)
				return
			}
			cmd.Printf("Deleted apartment %d.\n", id)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
