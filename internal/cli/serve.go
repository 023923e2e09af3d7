package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/eva-mcp/internal/metrics"
	evaserver "github.com/HendryAvila/eva-mcp/internal/server"
	"github.com/HendryAvila/eva-mcp/internal/updater"
)

// serveStdio is a package-level var so tests can stop short of taking over
// the process stdio.
var serveStdio = func(s *server.MCPServer, logger *zap.Logger) error {
	return server.ServeStdio(s, server.WithErrorLogger(zap.NewStdLog(logger)))
}

// NewServeCmd starts the MCP server on stdio.
func NewServeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: "Start the MCP server on stdin/stdout. Writes are allowed unless " +
			"EVA_READ_ONLY=true. Logs go to stderr and, optionally, EVA_LOG_FILE.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, cleanupLog, err := newLogger(cfg, cmd)
			if err != nil {
				return err
			}
			defer cleanupLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			if cfg.MetricsAddr != "" {
				go func() {
					logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
					if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
						logger.Warn("metrics server stopped", zap.Error(err))
					}
				}()
			}

			s, cleanup, err := evaserver.New(cfg, logger, m)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			if cfg.UpdateCheck {
				go checkForUpdates(ctx, logger)
			}

			err = serveStdio(s, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// checkForUpdates logs a notice when a newer release exists. Failures are
// only visible at debug level.
func checkForUpdates(ctx context.Context, logger *zap.Logger) {
	res, err := updater.Check(ctx, evaserver.Version)
	if err != nil {
		logger.Debug("update check failed", zap.Error(err))
		return
	}
	if res.UpdateAvailable {
		logger.Info("update available",
			zap.String("current", res.CurrentVersion),
			zap.String("latest", res.LatestVersion),
			zap.String("release", res.ReleaseURL),
			zap.String("hint", "run: eva-mcp update"),
		)
	}
}
