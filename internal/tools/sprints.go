package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// Eva models sprints as lists (CmfList); the tools use the sprint wording.

// ListSprintsTool handles the eva_list_sprints MCP tool.
type ListSprintsTool struct {
	ops Backend
}

// NewListSprintsTool creates a ListSprintsTool.
func NewListSprintsTool(ops Backend) *ListSprintsTool {
	return &ListSprintsTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_list_sprints.
func (t *ListSprintsTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_list_sprints",
		mcp.WithDescription("List Eva sprints (task lists)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project", mcp.Description("Only sprints of this project code")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 50)")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip (default: 0)")),
	)
}

// Handle processes the eva_list_sprints tool call.
func (t *ListSprintsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filters []eva.Filter
	if project := stringArg(req, "project"); project != "" {
		filters = append(filters, eva.Eq("parent", project))
	}

	lists, err := t.ops.ListLists(ctx, eva.ListOptions{
		Filters: filters,
		Limit:   intArg(req, "limit", eva.Lists.DefaultLimit),
		Offset:  offsetArg(req),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("lists", lists), nil
}

// GetSprintTool handles the eva_get_sprint MCP tool.
type GetSprintTool struct {
	ops Backend
}

// NewGetSprintTool creates a GetSprintTool.
func NewGetSprintTool(ops Backend) *GetSprintTool {
	return &GetSprintTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_sprint.
func (t *GetSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_sprint",
		mcp.WithDescription("Get a single Eva sprint (task list) by its code."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("list_code", mcp.Required(), mcp.Description("Sprint (list) code")),
	)
}

// Handle processes the eva_get_sprint tool call.
func (t *GetSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "list_code")
	if code == "" {
		return fail(required("list_code")), nil
	}

	list, err := t.ops.GetList(ctx, code)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"list", list}), nil
}

// CreateSprintTool handles the eva_create_sprint MCP tool.
type CreateSprintTool struct {
	ops Backend
}

// NewCreateSprintTool creates a CreateSprintTool.
func NewCreateSprintTool(ops Backend) *CreateSprintTool {
	return &CreateSprintTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_create_sprint.
func (t *CreateSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_create_sprint",
		mcp.WithDescription(
			"Create a new Eva sprint (task list) in a project. Refused when the server runs in read-only mode.",
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name", mcp.Required(), mcp.Description("Sprint name")),
		mcp.WithString("project_code", mcp.Required(), mcp.Description("Project code to create the sprint in")),
	)
}

// Handle processes the eva_create_sprint tool call.
func (t *CreateSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(req, "name")
	if name == "" {
		return fail(required("name")), nil
	}
	project := stringArg(req, "project_code")
	if project == "" {
		return fail(required("project_code")), nil
	}

	list, err := t.ops.CreateList(ctx, eva.NewList{Name: name, Parent: project})
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"list", list}, field{"message", "Sprint created successfully"}), nil
}
