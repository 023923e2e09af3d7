package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// GetCommentsTool handles the eva_get_comments MCP tool.
type GetCommentsTool struct {
	ops Backend
}

// NewGetCommentsTool creates a GetCommentsTool.
func NewGetCommentsTool(ops Backend) *GetCommentsTool {
	return &GetCommentsTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_comments.
func (t *GetCommentsTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_comments",
		mcp.WithDescription("List comments attached to a task, project or document."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("parent_code", mcp.Required(), mcp.Description("Code of the commented object")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 50)")),
	)
}

// Handle processes the eva_get_comments tool call.
func (t *GetCommentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := stringArg(req, "parent_code")
	if parent == "" {
		return fail(required("parent_code")), nil
	}

	comments, err := t.ops.ListComments(ctx, eva.ListOptions{
		Filters: []eva.Filter{eva.Eq("parent", parent)},
		Limit:   intArg(req, "limit", eva.Comments.DefaultLimit),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("comments", comments), nil
}

// AddCommentTool handles the eva_add_comment MCP tool.
type AddCommentTool struct {
	ops Backend
}

// NewAddCommentTool creates an AddCommentTool.
func NewAddCommentTool(ops Backend) *AddCommentTool {
	return &AddCommentTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_add_comment.
func (t *AddCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_add_comment",
		mcp.WithDescription(
			"Add a comment to a task, project or document. Refused when the server runs in read-only mode.",
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("parent_code", mcp.Required(), mcp.Description("Code of the object to comment on")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	)
}

// Handle processes the eva_add_comment tool call.
func (t *AddCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent := stringArg(req, "parent_code")
	if parent == "" {
		return fail(required("parent_code")), nil
	}
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return fail(required("text")), nil
	}

	comment, err := t.ops.CreateComment(ctx, eva.NewComment{Parent: parent, Text: text})
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"comment", comment}, field{"message", "Comment added successfully"}), nil
}
