package cmd

import (
	"os"

	"github.com/habedi/rentdesk/db"
	"github.com/habedi/rentdesk/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute opens the session database, runs the CLI and exits with its status.
func Execute() {
	initializeDatabase()
	code := execute(createRootCmd(), os.Args[1:])
	closeDatabase()

	if code != 0 {
		os.Exit(code)
	}
}

// execute runs root with args and returns the process exit status. Usage
// errors reported by cobra itself (unknown flags, wrong argument counts)
// count as validation failures.
func execute(root *cobra.Command, args []string) int {
	exitCode = 0
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.Debug().Err(err).Msg("Command rejected by the parser")
		return clierr.New(clierr.Validation, err.Error(), err).ExitCode()
	}
	return exitCode
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rentdesk",
		Short: "Manage rental apartments, tenants and payments from the terminal",
		Long: "rentdesk talks to a property-rental backend: apartments, tenants, rent payments,\n" +
			"documents and notifications. Run 'rentdesk login' first; the session is kept in\n" +
			"the data directory and refreshed automatically.",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (default is config.yaml in the data directory)")
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		registerCmd(),
		apartmentsCmd(),
		tenantsCmd(),
		paymentsCmd(),
		documentsCmd(),
		notificationsCmd(),
		dashboardCmd(),
		reportCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func initializeDatabase() {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Str("path", db.Path).Msg("Failed to open the session database")
		os.Exit(1)
	}
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the session database")
		os.Exit(1)
	}
}
