package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/eva-mcp/internal/config"
	"github.com/HendryAvila/eva-mcp/internal/eva"
	"github.com/HendryAvila/eva-mcp/internal/journal"
	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// NewDoctorCmd returns a health-check command validating config and,
// with --ping, backend reachability.
func NewDoctorCmd(opts *Options) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. API: %s, timeout: %s\n", cfg.APIURL, cfg.Timeout())
			fmt.Fprintf(out, "Mode: serve %s, call %s\n", readOnlyLabel(cfg, false), readOnlyLabel(cfg, true))

			if cfg.JournalEnabled() {
				store, err := journal.Open(cfg.JournalPath, nil)
				if err != nil {
					fmt.Fprintf(out, "Journal: unavailable (%v)\n", err)
				} else {
					stats, err := store.Stats()
					_ = store.Close()
					if err != nil {
						fmt.Fprintf(out, "Journal: %s (stats failed: %v)\n", cfg.JournalPath, err)
					} else {
						fmt.Fprintf(out, "Journal: %s, %d calls recorded\n", cfg.JournalPath, stats.TotalCalls)
					}
				}
			} else {
				fmt.Fprintln(out, "Journal: off")
			}

			if cfg.MetricsAddr != "" {
				fmt.Fprintf(out, "Metrics: http://%s/metrics\n", cfg.MetricsAddr)
			}

			if !ping {
				return nil
			}

			client, err := rpc.New(rpc.Config{
				BaseURL:  cfg.APIURL,
				Token:    cfg.APIToken,
				ReadOnly: rpc.Bool(true),
				Timeout:  cfg.Timeout(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			n, err := eva.New(client).CountProjects(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("backend ping failed: %w", err)
			}
			fmt.Fprintf(out, "Backend OK. Projects visible: %d\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Also count projects on the backend to check the token")
	return cmd
}

// readOnlyLabel renders the mode for human output.
func readOnlyLabel(cfg *config.Config, def bool) string {
	mode := "read-write"
	if cfg.ReadOnlyOr(def) {
		mode = "read-only"
	}
	if !cfg.ReadOnlySet() {
		mode += " (default)"
	}
	return mode
}
