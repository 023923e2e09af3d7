// Package tools implements the MCP tools exposed by eva-mcp.
//
// Each tool follows the same shape:
//   - a struct holding its dependencies, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() translates arguments, calls one domain operation and
//     renders a JSON envelope
//
// Handlers never return a Go error. Every failure, including policy
// violations and transport errors, becomes the envelope
// {"success": false, "error": "...", "code": n} inside a result flagged
// IsError, so the calling agent always gets something it can read.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/HendryAvila/eva-mcp/internal/eva"
	"github.com/HendryAvila/eva-mcp/internal/journal"
	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// Backend is the set of domain operations the tools depend on.
// *eva.Operations satisfies it.
type Backend interface {
	GetTask(ctx context.Context, code string) (json.RawMessage, error)
	ListTasks(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)
	CountTasks(ctx context.Context, filters []eva.Filter) (int64, error)
	CreateTask(ctx context.Context, t eva.NewTask) (json.RawMessage, error)
	UpdateTask(ctx context.Context, code string, c eva.TaskChanges) (json.RawMessage, error)

	GetProject(ctx context.Context, code string) (json.RawMessage, error)
	ListProjects(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)

	GetUser(ctx context.Context, code string) (json.RawMessage, error)
	ListUsers(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)

	GetDocument(ctx context.Context, code string) (json.RawMessage, error)
	ListDocuments(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)

	ListComments(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)
	CreateComment(ctx context.Context, c eva.NewComment) (json.RawMessage, error)

	GetList(ctx context.Context, code string) (json.RawMessage, error)
	ListLists(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)
	CreateList(ctx context.Context, l eva.NewList) (json.RawMessage, error)

	ListAudit(ctx context.Context, opts eva.ListOptions) ([]json.RawMessage, error)
}

// History reads the local call journal. *journal.Store satisfies it.
type History interface {
	Recent(limit int, method string) ([]journal.Entry, error)
}

// ─── Argument helpers ───────────────────────────────────────────────────────

// stringArg returns a trimmed string argument, or "" when missing.
func stringArg(req mcp.CallToolRequest, key string) string {
	return strings.TrimSpace(req.GetString(key, ""))
}

// queryArg returns the "query" argument untouched. Surrounding spaces are
// part of the substring the backend matches.
func queryArg(req mcp.CallToolRequest) string {
	return req.GetString("query", "")
}

// intArg accepts JSON numbers, ints and numeric strings. Missing,
// unparseable or non-positive values give defaultVal.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return defaultVal
	}
	n, err := cast.ToIntE(v)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

// offsetArg is like intArg but allows zero and defaults to it.
func offsetArg(req mcp.CallToolRequest) int {
	n, err := cast.ToIntE(req.GetArguments()["offset"])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// optionalIntArg returns nil when the key is absent or null, so callers can
// tell "not supplied" from zero.
func optionalIntArg(req mcp.CallToolRequest, key string) (*int, error) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("'%s' must be an integer", key)
	}
	return &n, nil
}

// boolArg extracts a boolean argument, accepting "true"/"false" strings.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return defaultVal
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// stringSliceArg accepts a JSON array or a comma-separated string.
// Blank entries are dropped.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}

	var raw []string
	if s, isString := v.(string); isString {
		raw = strings.Split(s, ",")
	} else {
		raw = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extraArg reads an optional object of additional backend fields.
func extraArg(req mcp.CallToolRequest) (rpc.Params, error) {
	v, ok := req.GetArguments()["extra"]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("'extra' must be an object")
	}
	return rpc.Params(m), nil
}

// ─── Result envelopes ───────────────────────────────────────────────────────

// field is one key of an envelope. Envelopes keep key order so "success"
// always comes first.
type field struct {
	key   string
	value any
}

// render encodes fields as an indented JSON object without HTML escaping.
func render(fields ...field) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.key); err != nil {
			return "", err
		}
		buf.WriteByte(':')
		if err := enc.Encode(f.value); err != nil {
			return "", fmt.Errorf("encoding %q: %w", f.key, err)
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ok renders a success envelope.
func ok(fields ...field) *mcp.CallToolResult {
	text, err := render(append([]field{{"success", true}}, fields...)...)
	if err != nil {
		return fail(fmt.Errorf("encoding result: %w", err))
	}
	return mcp.NewToolResultText(text)
}

// fail renders the ToolError envelope for err. Only policy violations and
// backend errors carry a code.
func fail(err error) *mcp.CallToolResult {
	fields := []field{
		{"success", false},
		{"error", rpc.ErrorMessage(err)},
	}
	if code, hasCode := rpc.ErrorCode(err); hasCode {
		fields = append(fields, field{"code", code})
	}

	text, renderErr := render(fields...)
	if renderErr != nil {
		text = fmt.Sprintf(`{"success": false, "error": %q}`, err.Error())
	}
	return mcp.NewToolResultError(text)
}

// required returns the error used when a mandatory argument is missing.
func required(key string) error {
	return fmt.Errorf("'%s' is required", key)
}

// listResult renders {"success": true, "count": n, <key>: items}.
func listResult(key string, items []json.RawMessage) *mcp.CallToolResult {
	return ok(field{"count", len(items)}, field{key, items})
}
