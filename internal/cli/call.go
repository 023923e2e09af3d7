package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// NewCallCmd performs one raw JSON-RPC call through the bare client.
//
// Unlike serve, the bare client is read-only unless EVA_READ_ONLY=false.
func NewCallCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [kwargs-json]",
		Short: "Call one backend method and print the result",
		Example: `  eva-mcp call CmfTask.get '{"code":"TASK-123"}'
  eva-mcp call CmfProject.list '{"slice":[0,5]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.TrimSpace(args[0])
			params := rpc.Params{}
			if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
				if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
					return fmt.Errorf("kwargs must be a JSON object: %w", err)
				}
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, cleanupLog, err := newLogger(cfg, cmd)
			if err != nil {
				return err
			}
			defer cleanupLog()

			client, err := rpc.New(rpc.Config{
				BaseURL:  cfg.APIURL,
				Token:    cfg.APIToken,
				ReadOnly: rpc.Bool(cfg.ReadOnlyOr(true)),
				Timeout:  cfg.Timeout(),
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Call(cmd.Context(), method, params)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
}

// writeJSON prints raw JSON indented by two spaces.
func writeJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting result: %w", err)
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
