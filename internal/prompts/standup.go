// Package prompts implements MCP prompt handlers for common Eva workflows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a specific sequence of tools. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StandupPrompt handles the eva-standup MCP prompt.
// It asks the AI to summarize one person's open work.
type StandupPrompt struct{}

// NewStandupPrompt creates a StandupPrompt.
func NewStandupPrompt() *StandupPrompt {
	return &StandupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StandupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("eva-standup",
		mcp.WithPromptDescription(
			"Summarize a person's current Eva tasks for a standup: what is in progress, "+
				"what is blocked and what changed recently.",
		),
		mcp.WithArgument("user_code",
			mcp.ArgumentDescription("Person code. Leave empty to pick from eva_list_users."),
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Optional project code to narrow the summary"),
		),
	)
}

// Handle processes the eva-standup prompt request.
func (p *StandupPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	user := promptArg(req, "user_code")
	project := promptArg(req, "project")

	var b strings.Builder
	if user == "" {
		b.WriteString("I want a standup summary. First run `eva_list_users` and ask me which person it is for.\n\n")
		user = "<the chosen person code>"
	}

	scope := ""
	if project != "" {
		scope = fmt.Sprintf(", project='%s'", project)
	}

	fmt.Fprintf(&b,
		"Please prepare a standup summary for %s:\n"+
			"1. Run `eva_search_tasks` with responsible='%s'%s and limit=50\n"+
			"2. Group the tasks by status; list in-progress work first\n"+
			"3. For every task that looks blocked or overdue, run `eva_get_comments` and quote the latest comment\n"+
			"4. Finish with `eva_count_tasks` for the same filters so the totals are exact\n\n"+
			"Keep it short: one line per task with its code and name.",
		user, user, scope,
	)

	description := "Standup summary"
	if u := promptArg(req, "user_code"); u != "" {
		description = fmt.Sprintf("Standup summary for %s", u)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}

// promptArg returns a trimmed prompt argument, or "".
func promptArg(req mcp.GetPromptRequest, key string) string {
	if req.Params.Arguments == nil {
		return ""
	}
	return strings.TrimSpace(req.Params.Arguments[key])
}
