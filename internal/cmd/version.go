package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/bibly/internal/server"
)

func newVersionCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bibly v%s\n", server.Version)
			if !check {
				return nil
			}

			result := newChecker().Check(cmd.Context(), server.Version)
			switch {
			case result.LatestVersion == "":
				fmt.Fprintln(out, "Could not check for updates.")
			case result.UpdateAvailable:
				fmt.Fprintf(out, "📦 Update available: v%s → v%s\n   Release: %s\n",
					result.CurrentVersion, result.LatestVersion, result.ReleaseURL)
			default:
				fmt.Fprintf(out, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
