package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool is implemented by every tool in this package.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Recorder counts tool invocations. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordTool(tool string, success bool)
}

// UnknownToolError is returned when Dispatch is asked for a tool that is not
// in the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// Adapter owns the tool catalog and routes calls by tool name.
type Adapter struct {
	tools    map[string]Tool
	order    []string
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) { a.recorder = r }
}

// NewAdapter builds the catalog. history may be nil, in which case
// eva_call_history is not offered.
func NewAdapter(ops Backend, history History, opts ...Option) *Adapter {
	a := &Adapter{
		tools:  map[string]Tool{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	catalog := []Tool{
		// Tasks
		NewSearchTasksTool(ops),
		NewGetTaskTool(ops),
		NewCountTasksTool(ops),
		NewCreateTaskTool(ops),
		NewUpdateTaskTool(ops),

		// Projects
		NewListProjectsTool(ops),
		NewGetProjectTool(ops),

		// Users
		NewListUsersTool(ops),
		NewGetUserTool(ops),

		// Documents
		NewSearchDocumentsTool(ops),
		NewGetDocumentTool(ops),

		// Comments
		NewGetCommentsTool(ops),
		NewAddCommentTool(ops),

		// Sprints
		NewListSprintsTool(ops),
		NewGetSprintTool(ops),
		NewCreateSprintTool(ops),

		// Audit
		NewGetAuditLogTool(ops),
	}
	if history != nil {
		catalog = append(catalog, NewCallHistoryTool(history))
	}

	for _, t := range catalog {
		name := t.Definition().Name
		a.tools[name] = t
		a.order = append(a.order, name)
	}
	return a
}

// Names returns the tool names in registration order.
func (a *Adapter) Names() []string {
	return append([]string(nil), a.order...)
}

// Register adds every tool to the MCP server, routed through Handle.
func (a *Adapter) Register(s *server.MCPServer) {
	for _, name := range a.order {
		s.AddTool(a.tools[name].Definition(), a.Handle)
	}
}

// Handle routes an MCP request by its tool name.
func (a *Adapter) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return a.call(ctx, req), nil
}

// Dispatch invokes the named tool with already-decoded arguments.
func (a *Adapter) Dispatch(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return a.call(ctx, req)
}

func (a *Adapter) call(ctx context.Context, req mcp.CallToolRequest) *mcp.CallToolResult {
	name := req.Params.Name
	t, found := a.tools[name]
	if !found {
		a.logger.Warn("unknown tool", zap.String("tool", name))
		return fail(&UnknownToolError{Name: name})
	}

	start := time.Now()
	res, err := t.Handle(ctx, req)
	if err != nil {
		res = fail(err)
	}
	if res == nil {
		res = fail(fmt.Errorf("tool %s returned no result", name))
	}

	a.logger.Debug("tool call",
		zap.String("tool", name),
		zap.Bool("success", !res.IsError),
		zap.Duration("elapsed", time.Since(start)),
	)
	if a.recorder != nil {
		a.recorder.RecordTool(name, !res.IsError)
	}
	return res
}
