package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X github.com/habedi/rentdesk/cmd.version=...".
var version = "0.3.0"

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(version)
				return
			}
			printFields(cmd.OutOrStdout(), [][2]string{
				{"Rentdesk version:", version},
				{"Go version:", runtime.Version()},
				{"Platform:", runtime.GOOS + "/" + runtime.GOARCH},
			})
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	return cmd
}
