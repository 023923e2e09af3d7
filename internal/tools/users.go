package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// ListUsersTool handles the eva_list_users MCP tool.
type ListUsersTool struct {
	ops Backend
}

// NewListUsersTool creates a ListUsersTool.
func NewListUsersTool(ops Backend) *ListUsersTool {
	return &ListUsersTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_list_users.
func (t *ListUsersTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_list_users",
		mcp.WithDescription("List Eva users (people). Use the returned codes as 'responsible' values."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 50)")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip (default: 0)")),
	)
}

// Handle processes the eva_list_users tool call.
func (t *ListUsersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := t.ops.ListUsers(ctx, eva.ListOptions{
		Limit:  intArg(req, "limit", eva.Users.DefaultLimit),
		Offset: offsetArg(req),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("users", users), nil
}

// GetUserTool handles the eva_get_user MCP tool.
type GetUserTool struct {
	ops Backend
}

// NewGetUserTool creates a GetUserTool.
func NewGetUserTool(ops Backend) *GetUserTool {
	return &GetUserTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_user.
func (t *GetUserTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_user",
		mcp.WithDescription("Get a single Eva user by person code."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("user_code", mcp.Required(), mcp.Description("Person code")),
	)
}

// Handle processes the eva_get_user tool call.
func (t *GetUserTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "user_code")
	if code == "" {
		return fail(required("user_code")), nil
	}

	user, err := t.ops.GetUser(ctx, code)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"user", user}), nil
}
