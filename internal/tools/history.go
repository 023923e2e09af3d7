package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// CallHistoryTool handles the eva_call_history MCP tool. It reads the local
// journal and never touches the backend.
type CallHistoryTool struct {
	history History
}

// NewCallHistoryTool creates a CallHistoryTool.
func NewCallHistoryTool(history History) *CallHistoryTool {
	return &CallHistoryTool{history: history}
}

// Definition returns the MCP tool definition for eva_call_history.
func (t *CallHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_call_history",
		mcp.WithDescription(
			"Show recent backend calls made by this server, newest first: method, outcome, "+
				"error code and call id. Use it to trace a failed tool call.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString("method", mcp.Description("Only calls to this backend method, e.g. CmfTask.create")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
	)
}

// Handle processes the eva_call_history tool call.
func (t *CallHistoryTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.history.Recent(intArg(req, "limit", 20), stringArg(req, "method"))
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"count", len(entries)}, field{"calls", entries}), nil
}
