package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	evaserver "github.com/HendryAvila/eva-mcp/internal/server"
	"github.com/HendryAvila/eva-mcp/internal/updater"
)

// NewVersionCmd prints the compiled version, optionally checking for a
// newer release.
func NewVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show eva-mcp version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "eva-mcp %s\n", evaserver.Version)
			if !check {
				return nil
			}

			res, err := updater.Check(cmd.Context(), evaserver.Version)
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			if res.UpdateAvailable {
				fmt.Fprintf(out, "Update available: %s -> %s\n  %s\n  Run: eva-mcp update\n",
					res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
			} else {
				fmt.Fprintf(out, "Up to date (latest release: %s)\n", res.LatestVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}
