package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// taskFilters builds the task filter list in a stable order:
// project, responsible, status, then the name search.
func taskFilters(project, responsible, status, query string) []eva.Filter {
	filters := []eva.Filter{}
	if project != "" {
		filters = append(filters, eva.Eq("parent", project))
	}
	if responsible != "" {
		filters = append(filters, eva.Eq("responsible", responsible))
	}
	if status != "" {
		filters = append(filters, eva.Eq("status", status))
	}
	if query != "" {
		filters = append(filters, eva.Contains("name", query))
	}
	return filters
}

// ─── eva_search_tasks ───────────────────────────────────────────────────────

// SearchTasksTool handles the eva_search_tasks MCP tool.
type SearchTasksTool struct {
	ops Backend
}

// NewSearchTasksTool creates a SearchTasksTool.
func NewSearchTasksTool(ops Backend) *SearchTasksTool {
	return &SearchTasksTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_search_tasks.
func (t *SearchTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_search_tasks",
		mcp.WithDescription(
			"Search Eva tasks. Every filter is optional and they combine with AND. "+
				"'query' matches task names case-insensitively as a substring.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Description("Text to look for in the task name")),
		mcp.WithString("project", mcp.Description("Project code the task belongs to")),
		mcp.WithString("responsible", mcp.Description("Person code of the responsible user")),
		mcp.WithString("status", mcp.Description("Task status")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip (default: 0)")),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived tasks (default: false)")),
	)
}

// Handle processes the eva_search_tasks tool call.
func (t *SearchTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filters := taskFilters(
		stringArg(req, "project"),
		stringArg(req, "responsible"),
		stringArg(req, "status"),
		queryArg(req),
	)

	tasks, err := t.ops.ListTasks(ctx, eva.ListOptions{
		Filters:         filters,
		Limit:           intArg(req, "limit", eva.Tasks.DefaultLimit),
		Offset:          offsetArg(req),
		IncludeArchived: boolArg(req, "include_archived", false),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("tasks", tasks), nil
}

// ─── eva_count_tasks ────────────────────────────────────────────────────────

// CountTasksTool handles the eva_count_tasks MCP tool.
type CountTasksTool struct {
	ops Backend
}

// NewCountTasksTool creates a CountTasksTool.
func NewCountTasksTool(ops Backend) *CountTasksTool {
	return &CountTasksTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_count_tasks.
func (t *CountTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_count_tasks",
		mcp.WithDescription("Count Eva tasks matching optional project, responsible and status filters."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("project", mcp.Description("Project code the task belongs to")),
		mcp.WithString("responsible", mcp.Description("Person code of the responsible user")),
		mcp.WithString("status", mcp.Description("Task status")),
	)
}

// Handle processes the eva_count_tasks tool call.
func (t *CountTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filters := taskFilters(
		stringArg(req, "project"),
		stringArg(req, "responsible"),
		stringArg(req, "status"),
		"",
	)

	n, err := t.ops.CountTasks(ctx, filters)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"count", n}, field{"filters", filters}), nil
}

// ─── eva_get_task ───────────────────────────────────────────────────────────

// GetTaskTool handles the eva_get_task MCP tool.
type GetTaskTool struct {
	ops Backend
}

// NewGetTaskTool creates a GetTaskTool.
func NewGetTaskTool(ops Backend) *GetTaskTool {
	return &GetTaskTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_task.
func (t *GetTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_task",
		mcp.WithDescription("Get a single Eva task by its code."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("task_code", mcp.Required(), mcp.Description("Task code, e.g. TASK-123")),
	)
}

// Handle processes the eva_get_task tool call.
func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "task_code")
	if code == "" {
		return fail(required("task_code")), nil
	}

	task, err := t.ops.GetTask(ctx, code)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"task", task}), nil
}

// ─── eva_create_task ────────────────────────────────────────────────────────

// CreateTaskTool handles the eva_create_task MCP tool.
type CreateTaskTool struct {
	ops Backend
}

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(ops Backend) *CreateTaskTool {
	return &CreateTaskTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_create_task.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_create_task",
		mcp.WithDescription(
			"Create a new Eva task. Refused when the server runs in read-only mode.",
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("project_code", mcp.Description("Project code to create the task in")),
		mcp.WithArray("lists",
			mcp.Description("Sprint (list) codes to put the task on"),
			mcp.WithStringItems(),
		),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("responsible", mcp.Description("Person code of the responsible user")),
		mcp.WithNumber("priority", mcp.Description("Task priority")),
		mcp.WithObject("extra", mcp.Description("Additional backend fields, sent as-is. Named arguments win on conflict.")),
	)
}

// Handle processes the eva_create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(req, "name")
	if name == "" {
		return fail(required("name")), nil
	}

	priority, err := optionalIntArg(req, "priority")
	if err != nil {
		return fail(err), nil
	}
	extra, err := extraArg(req)
	if err != nil {
		return fail(err), nil
	}

	task, err := t.ops.CreateTask(ctx, eva.NewTask{
		Name:        name,
		Parent:      stringArg(req, "project_code"),
		Lists:       stringSliceArg(req, "lists"),
		Text:        req.GetString("description", ""),
		Responsible: stringArg(req, "responsible"),
		Priority:    priority,
		Extra:       extra,
	})
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"task", task}, field{"message", "Task created successfully"}), nil
}

// ─── eva_update_task ────────────────────────────────────────────────────────

// UpdateTaskTool handles the eva_update_task MCP tool.
type UpdateTaskTool struct {
	ops Backend
}

// NewUpdateTaskTool creates an UpdateTaskTool.
func NewUpdateTaskTool(ops Backend) *UpdateTaskTool {
	return &UpdateTaskTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_update_task.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_update_task",
		mcp.WithDescription(
			"Update fields of an existing Eva task. Only the supplied fields change. "+
				"Refused when the server runs in read-only mode.",
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("task_code", mcp.Required(), mcp.Description("Code of the task to update")),
		mcp.WithString("name", mcp.Description("New task name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("responsible", mcp.Description("New responsible person code")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithNumber("priority", mcp.Description("New priority")),
		mcp.WithObject("extra", mcp.Description("Additional backend fields, sent as-is. Named arguments win on conflict.")),
	)
}

// Handle processes the eva_update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "task_code")
	if code == "" {
		return fail(required("task_code")), nil
	}

	priority, err := optionalIntArg(req, "priority")
	if err != nil {
		return fail(err), nil
	}
	extra, err := extraArg(req)
	if err != nil {
		return fail(err), nil
	}

	task, err := t.ops.UpdateTask(ctx, code, eva.TaskChanges{
		Name:        stringArg(req, "name"),
		Text:        req.GetString("description", ""),
		Responsible: stringArg(req, "responsible"),
		Status:      stringArg(req, "status"),
		Priority:    priority,
		Extra:       extra,
	})
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"task", task}, field{"message", "Task updated successfully"}), nil
}
