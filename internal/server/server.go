// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete client, journal
// and metrics and injects them into the tools and resources. No business
// logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/eva-mcp/internal/config"
	"github.com/HendryAvila/eva-mcp/internal/eva"
	"github.com/HendryAvila/eva-mcp/internal/journal"
	"github.com/HendryAvila/eva-mcp/internal/metrics"
	"github.com/HendryAvila/eva-mcp/internal/prompts"
	"github.com/HendryAvila/eva-mcp/internal/resources"
	"github.com/HendryAvila/eva-mcp/internal/rpc"
	"github.com/HendryAvila/eva-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// components holds everything New builds, so tests can reach the pieces
// without going through the MCP wire protocol.
type components struct {
	client    *rpc.Client
	journal   *journal.Store
	adapter   *tools.Adapter
	resources *resources.Handler
	readOnly  bool
}

// close releases the client and the journal. Safe to call more than once.
func (c *components) close(logger *zap.Logger) {
	_ = c.client.Close()
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			logger.Warn("journal close failed", zap.Error(err))
		}
	}
}

// New creates and configures the MCP server with every tool, prompt and
// resource registered.
//
// The returned cleanup function closes the HTTP client and the call
// journal and must be called on shutdown (typically via defer). It is
// always non-nil and safe to call even if New failed.
func New(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := build(cfg, logger, m)
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"eva-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(c.readOnly)),
	)

	c.adapter.Register(s)

	standup := prompts.NewStandupPrompt()
	s.AddPrompt(standup.Definition(), standup.Handle)

	review := prompts.NewTaskReviewPrompt()
	s.AddPrompt(review.Definition(), review.Handle)

	s.AddResource(c.resources.StatusResource(), c.resources.HandleStatus)

	logger.Info("mcp server ready",
		zap.String("version", Version),
		zap.String("api_url", cfg.APIURL),
		zap.Bool("read_only", c.readOnly),
		zap.Int("tools", len(c.adapter.Names())),
		zap.Bool("journal", c.journal != nil),
	)

	return s, func() { c.close(logger) }, nil
}

func build(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*components, error) {
	c := &components{readOnly: cfg.ReadOnlyOr(false)}

	// --- Optional call journal ---
	//
	// A journal that cannot be opened (read-only home, locked file) must
	// not stop the server. The eva_call_history tool is simply not offered.
	observers := rpc.Observers{}
	if m != nil {
		observers = append(observers, m)
	}
	if cfg.JournalEnabled() {
		store, err := journal.Open(cfg.JournalPath, logger)
		if err != nil {
			logger.Warn("call journal disabled", zap.String("path", cfg.JournalPath), zap.Error(err))
		} else {
			c.journal = store
			observers = append(observers, store)
		}
	}

	// --- Backend client ---

	client, err := rpc.New(rpc.Config{
		BaseURL:  cfg.APIURL,
		Token:    cfg.APIToken,
		ReadOnly: rpc.Bool(c.readOnly),
		Timeout:  cfg.Timeout(),
		Observer: observers,
		Logger:   logger,
	})
	if err != nil {
		if c.journal != nil {
			_ = c.journal.Close()
		}
		return nil, fmt.Errorf("creating eva client: %w", err)
	}
	c.client = client

	// --- Tools and resources ---
	//
	// Interfaces stay nil (not typed-nil pointers) when the journal is off.
	var (
		history tools.History
		stats   resources.StatsSource
	)
	if c.journal != nil {
		history, stats = c.journal, c.journal
	}

	opts := []tools.Option{tools.WithLogger(logger)}
	if m != nil {
		opts = append(opts, tools.WithRecorder(m))
	}
	c.adapter = tools.NewAdapter(eva.New(client), history, opts...)

	c.resources = resources.NewHandler(resources.Status{
		Version:        Version,
		APIURL:         client.BaseURL(),
		ReadOnly:       client.ReadOnly(),
		TimeoutSeconds: client.Timeout().Seconds(),
	}, stats)

	return c, nil
}

// noop is the cleanup returned when New fails.
func noop() {}

// serverInstructions returns the system instructions sent to the AI client.
func serverInstructions(readOnly bool) string {
	mode := "READ-WRITE: create and update tools reach the backend."
	if readOnly {
		mode = "READ-ONLY: eva_create_task, eva_update_task, eva_add_comment and " +
			"eva_create_sprint are refused with error code -32001 before any request is sent. " +
			"Set EVA_READ_ONLY=false to enable them."
	}

	return `# Eva MCP Server

Tools for the Eva project-management system: tasks, projects, users,
documents, comments, sprints (task lists) and the audit log.

## Mode
` + mode + `

## Conventions
- Every tool returns JSON with "success". On failure "error" holds the
  message and "code" is present for backend and policy errors.
- Entities are addressed by code (TASK-123, project codes, person codes).
  Use eva_list_users to find codes for the "responsible" argument.
- Search tools combine their filters with AND; "query" is a
  case-insensitive substring match on the name.
- Lists are paged with "limit" and "offset".
- The eva-standup and eva-task-review prompts chain these tools into
  common workflows.
- eva_call_history shows recent backend calls made by this server, useful
  when a tool call failed and you need the method or error code.
`
}
