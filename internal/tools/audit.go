package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// GetAuditLogTool handles the eva_get_audit_log MCP tool.
type GetAuditLogTool struct {
	ops Backend
}

// NewGetAuditLogTool creates a GetAuditLogTool.
func NewGetAuditLogTool(ops Backend) *GetAuditLogTool {
	return &GetAuditLogTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_audit_log.
func (t *GetAuditLogTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_audit_log",
		mcp.WithDescription("Get the Eva audit log: the change history of one object, or of everything when entity_code is omitted."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("entity_code", mcp.Description("Code of the object whose history to read (optional)")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 50)")),
	)
}

// Handle processes the eva_get_audit_log tool call.
func (t *GetAuditLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := eva.ListOptions{Limit: intArg(req, "limit", eva.Audit.DefaultLimit)}
	if code := stringArg(req, "entity_code"); code != "" {
		opts.Filters = []eva.Filter{eva.Eq("object_code", code)}
	}

	entries, err := t.ops.ListAudit(ctx, opts)
	if err != nil {
		return fail(err), nil
	}
	return listResult("audit_log", entries), nil
}
