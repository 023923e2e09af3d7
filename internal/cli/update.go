package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	evaserver "github.com/HendryAvila/eva-mcp/internal/server"
	"github.com/HendryAvila/eva-mcp/internal/updater"
)

// NewUpdateCmd replaces the binary with the latest release.
func NewUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update eva-mcp to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			installed, err := updater.SelfUpdate(cmd.Context(), evaserver.Version)
			if errors.Is(err, updater.ErrUpToDate) {
				fmt.Fprintf(out, "Already at the latest version (%s)\n", evaserver.Version)
				return nil
			}
			if err != nil {
				return fmt.Errorf("update failed: %w (download manually from https://github.com/%s/releases)", err, updater.Repo)
			}
			fmt.Fprintf(out, "Updated to %s. Restart your MCP host to use it.\n", installed)
			return nil
		},
	}
}
