package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// TaskReviewPrompt handles the eva-task-review MCP prompt.
// It pulls everything known about one task into a single review.
type TaskReviewPrompt struct{}

// NewTaskReviewPrompt creates a TaskReviewPrompt.
func NewTaskReviewPrompt() *TaskReviewPrompt {
	return &TaskReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TaskReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("eva-task-review",
		mcp.WithPromptDescription(
			"Review one Eva task: its fields, discussion and change history.",
		),
		mcp.WithArgument("task_code",
			mcp.ArgumentDescription("Code of the task to review, e.g. TASK-123"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the eva-task-review prompt request.
func (p *TaskReviewPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	code := promptArg(req, "task_code")
	if code == "" {
		return nil, fmt.Errorf("task_code is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of %s", code),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review task %s:\n"+
						"1. Run `eva_get_task` with task_code='%s'\n"+
						"2. Run `eva_get_comments` with parent_code='%s'\n"+
						"3. Run `eva_get_audit_log` with entity_code='%s'\n"+
						"4. Summarize: current status and owner, what was decided in the comments, "+
						"who changed what and when, and any open questions\n\n"+
						"Do not modify the task unless I ask you to.",
					code, code, code, code,
				)),
			},
		},
	}, nil
}
