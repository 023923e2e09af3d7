// Package logging builds the process logger.
//
// stdout carries the MCP stdio transport, so console output always goes to
// stderr. An optional log file is rotated with lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console, json or auto
	File   string // optional path; rotated

	// Stderr defaults to os.Stderr. Tests swap it for a buffer.
	Stderr io.Writer
}

// New builds a zap logger and redirects the stdlib log package to it.
// The returned cleanup flushes buffers and must be called on shutdown.
func New(opts Options) (*zap.Logger, func(), error) {
	var level zapcore.Level
	if err := level.Set(strings.ToLower(defaultString(opts.Level, "info"))); err != nil {
		return nil, noop, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	format := strings.ToLower(defaultString(opts.Format, "console"))
	if format == "auto" {
		format = autoFormat(stderr)
	}
	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, noop, fmt.Errorf("invalid log format %q", opts.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(stderr), level),
	}

	var rotator *lumberjack.Logger
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, noop, fmt.Errorf("creating log directory: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		// Files always get JSON so they stay machine-readable.
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	restore := zap.RedirectStdLog(logger)

	cleanup := func() {
		_ = logger.Sync()
		restore()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, cleanup, nil
}

// autoFormat picks console output for an interactive terminal and JSON when
// stderr is piped, which is the normal case under an MCP host.
func autoFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "console"
	}
	return "json"
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func noop() {}
