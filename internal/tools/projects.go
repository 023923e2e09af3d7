package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// ListProjectsTool handles the eva_list_projects MCP tool.
type ListProjectsTool struct {
	ops Backend
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(ops Backend) *ListProjectsTool {
	return &ListProjectsTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_list_projects",
		mcp.WithDescription("List Eva projects."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Description("Text to look for in the project name")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip (default: 0)")),
	)
}

// Handle processes the eva_list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filters []eva.Filter
	if q := queryArg(req); q != "" {
		filters = append(filters, eva.Contains("name", q))
	}

	projects, err := t.ops.ListProjects(ctx, eva.ListOptions{
		Filters: filters,
		Limit:   intArg(req, "limit", eva.Projects.DefaultLimit),
		Offset:  offsetArg(req),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("projects", projects), nil
}

// GetProjectTool handles the eva_get_project MCP tool.
type GetProjectTool struct {
	ops Backend
}

// NewGetProjectTool creates a GetProjectTool.
func NewGetProjectTool(ops Backend) *GetProjectTool {
	return &GetProjectTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_project.
func (t *GetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_project",
		mcp.WithDescription("Get a single Eva project by its code."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project_code", mcp.Required(), mcp.Description("Project code")),
	)
}

// Handle processes the eva_get_project tool call.
func (t *GetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "project_code")
	if code == "" {
		return fail(required("project_code")), nil
	}

	project, err := t.ops.GetProject(ctx, code)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"project", project}), nil
}
