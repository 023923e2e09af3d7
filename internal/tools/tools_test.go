package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/eva-mcp/internal/eva"
	"github.com/HendryAvila/eva-mcp/internal/journal"
	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// --- Test helpers ---

// fakeCaller records every call and replies from a per-method table.
// When readOnly is set it applies the real write guard first.
type fakeCaller struct {
	readOnly bool
	replies  map[string]string
	errs     map[string]error

	methods []string
	params  []rpc.Params
}

func (c *fakeCaller) Call(_ context.Context, method string, params rpc.Params) (json.RawMessage, error) {
	if err := rpc.CheckWrite(method, c.readOnly); err != nil {
		return nil, err
	}
	c.methods = append(c.methods, method)
	c.params = append(c.params, params)
	if err := c.errs[method]; err != nil {
		return nil, err
	}
	if r, found := c.replies[method]; found {
		return json.RawMessage(r), nil
	}
	return json.RawMessage("null"), nil
}

// lastParams renders the params of the most recent call as wire JSON.
func (c *fakeCaller) lastParams(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.params, "no call recorded")
	data, err := json.Marshal(c.params[len(c.params)-1])
	require.NoError(t, err)
	return string(data)
}

func (c *fakeCaller) lastMethod() string {
	if len(c.methods) == 0 {
		return ""
	}
	return c.methods[len(c.methods)-1]
}

type fakeHistory struct {
	entries []journal.Entry
	limit   int
	method  string
}

func (h *fakeHistory) Recent(limit int, method string) ([]journal.Entry, error) {
	h.limit, h.method = limit, method
	return h.entries, nil
}

type countingRecorder struct {
	calls map[string][]bool
}

func (r *countingRecorder) RecordTool(tool string, success bool) {
	if r.calls == nil {
		r.calls = map[string][]bool{}
	}
	r.calls[tool] = append(r.calls[tool], success)
}

func newAdapter(c *fakeCaller) *Adapter {
	return NewAdapter(eva.New(c), nil)
}

// makeReq creates a CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// envelope decodes the JSON text of a result.
func envelope(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &m), "result: %s", resultText(r))
	return m
}

// --- Catalog ---

func TestAdapter_Catalog(t *testing.T) {
	a := NewAdapter(eva.New(&fakeCaller{}), &fakeHistory{})

	want := []string{
		"eva_search_tasks", "eva_get_task", "eva_count_tasks", "eva_create_task", "eva_update_task",
		"eva_list_projects", "eva_get_project",
		"eva_list_users", "eva_get_user",
		"eva_search_documents", "eva_get_document",
		"eva_get_comments", "eva_add_comment",
		"eva_list_sprints", "eva_get_sprint", "eva_create_sprint",
		"eva_get_audit_log",
		"eva_call_history",
	}
	require.Equal(t, want, a.Names())
}

func TestAdapter_NoHistoryWithoutJournal(t *testing.T) {
	a := newAdapter(&fakeCaller{})
	require.NotContains(t, a.Names(), "eva_call_history")
}

func TestAdapter_UnknownTool(t *testing.T) {
	res := newAdapter(&fakeCaller{}).Dispatch(context.Background(), "eva_nope", nil)

	require.True(t, res.IsError)
	env := envelope(t, res)
	require.Equal(t, false, env["success"])
	require.Equal(t, "Unknown tool: eva_nope", env["error"])
	require.NotContains(t, env, "code")
}

func TestAdapter_RecordsOutcome(t *testing.T) {
	rec := &countingRecorder{}
	c := &fakeCaller{replies: map[string]string{"CmfTask.get": `{"code":"T-1"}`}}
	a := NewAdapter(eva.New(c), nil, WithRecorder(rec))

	a.Dispatch(context.Background(), "eva_get_task", map[string]any{"task_code": "T-1"})
	a.Dispatch(context.Background(), "eva_get_task", map[string]any{})

	require.Equal(t, []bool{true, false}, rec.calls["eva_get_task"])
}

func TestAdapter_HandleRoutesByName(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfProject.get": `{"code":"P1"}`}}
	a := newAdapter(c)

	req := makeReq(map[string]interface{}{"project_code": "P1"})
	req.Params.Name = "eva_get_project"
	res, err := a.Handle(context.Background(), req)

	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "CmfProject.get", c.lastMethod())
}

// --- Envelopes ---

func TestRender_KeepsOrderAndSkipsHTMLEscaping(t *testing.T) {
	text, err := render(field{"success", true}, field{"note", "<b>ñ & more</b>"})
	require.NoError(t, err)
	require.Equal(t, "{\n  \"success\": true,\n  \"note\": \"<b>ñ & more</b>\"\n}", text)
}

func TestFail_RPCErrorCarriesCode(t *testing.T) {
	res := fail(&rpc.RPCError{Code: -32602, Message: "Invalid params"})

	require.True(t, res.IsError)
	env := envelope(t, res)
	require.Equal(t, "Invalid params", env["error"])
	require.EqualValues(t, -32602, env["code"])
}

func TestFail_TransportErrorHasNoCode(t *testing.T) {
	env := envelope(t, fail(&rpc.TransportError{StatusCode: 500, Message: "HTTP error: 500"}))
	require.Equal(t, "HTTP error: 500", env["error"])
	require.NotContains(t, env, "code")
}

// --- Tasks ---

func TestSearchTasks_QueryAndLimit(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.list": `[{"code":"T-1"}]`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_search_tasks",
		map[string]any{"query": "foo", "limit": float64(10)})

	require.False(t, res.IsError, resultText(res))
	require.Equal(t, "CmfTask.list", c.lastMethod())
	require.JSONEq(t,
		`{"filter":[["name","ilike","%foo%"]],"slice":[0,10],"include_archived":false}`,
		c.lastParams(t))

	env := envelope(t, res)
	require.Equal(t, true, env["success"])
	require.EqualValues(t, 1, env["count"])
	require.Len(t, env["tasks"], 1)
}

func TestSearchTasks_FilterOrder(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.list": `[]`}}
	newAdapter(c).Dispatch(context.Background(), "eva_search_tasks", map[string]any{
		"query": "bug", "status": "open", "responsible": "U1", "project": "P1", "offset": 40,
	})

	require.JSONEq(t, `{
		"filter": [["parent","=","P1"],["responsible","=","U1"],["status","=","open"],["name","ilike","%bug%"]],
		"slice": [40,60],
		"include_archived": false
	}`, c.lastParams(t))
}

func TestSearchTasks_NoFiltersUsesDefaultSlice(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.list": `null`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_search_tasks", map[string]any{})

	require.JSONEq(t, `{"slice":[0,20],"include_archived":false}`, c.lastParams(t))
	env := envelope(t, res)
	require.EqualValues(t, 0, env["count"])
	require.Equal(t, []any{}, env["tasks"])
}

func TestCountTasks_EchoesFilters(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.count": `7`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_count_tasks", map[string]any{"project": "P1"})

	require.Equal(t, "CmfTask.count", c.lastMethod())
	require.JSONEq(t, `{"filter":[["parent","=","P1"]]}`, c.lastParams(t))

	env := envelope(t, res)
	require.EqualValues(t, 7, env["count"])
	require.Equal(t, []any{[]any{"parent", "=", "P1"}}, env["filters"])
}

func TestCountTasks_NoFilters(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.count": `0`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_count_tasks", nil)

	require.JSONEq(t, `{}`, c.lastParams(t))
	require.Equal(t, []any{}, envelope(t, res)["filters"])
}

func TestGetTask_MissingCode(t *testing.T) {
	c := &fakeCaller{}
	res := newAdapter(c).Dispatch(context.Background(), "eva_get_task", map[string]any{"task_code": "  "})

	require.True(t, res.IsError)
	require.Equal(t, "'task_code' is required", envelope(t, res)["error"])
	require.Empty(t, c.methods, "no backend call expected")
}

func TestGetTask_ReturnsRecordVerbatim(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.get": `{"code":"T-1","name":"Ship it","custom":{"x":1}}`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_get_task", map[string]any{"task_code": "T-1"})

	require.JSONEq(t, `{"code":"T-1"}`, c.lastParams(t))
	env := envelope(t, res)
	require.Equal(t, map[string]any{"code": "T-1", "name": "Ship it", "custom": map[string]any{"x": float64(1)}}, env["task"])
}

func TestCreateTask_ReadOnlyBlocked(t *testing.T) {
	c := &fakeCaller{readOnly: true}
	res := newAdapter(c).Dispatch(context.Background(), "eva_create_task", map[string]any{"name": "X"})

	require.True(t, res.IsError)
	env := envelope(t, res)
	require.Equal(t, false, env["success"])
	require.EqualValues(t, rpc.CodePolicyViolation, env["code"])
	require.Contains(t, env["error"], "CmfTask.create")
	require.Empty(t, c.methods, "guard must stop the call")
}

func TestCreateTask_Params(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.create": `{"code":"T-9"}`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_create_task", map[string]any{
		"name":         "Write docs",
		"project_code": "P1",
		"lists":        []any{"L1", "L2"},
		"description":  "All of them",
		"priority":     float64(2),
		"extra":        map[string]any{"deadline": "2026-11-01", "name": "ignored"},
	})

	require.False(t, res.IsError, resultText(res))
	require.JSONEq(t, `{
		"name": "Write docs",
		"parent": "P1",
		"lists": ["L1","L2"],
		"text": "All of them",
		"priority": 2,
		"deadline": "2026-11-01"
	}`, c.lastParams(t))

	env := envelope(t, res)
	require.Equal(t, "Task created successfully", env["message"])
	require.Equal(t, map[string]any{"code": "T-9"}, env["task"])
}

func TestCreateTask_ListsAsCSV(t *testing.T) {
	c := &fakeCaller{}
	newAdapter(c).Dispatch(context.Background(), "eva_create_task", map[string]any{"name": "X", "lists": "L1, L2,"})
	require.JSONEq(t, `{"name":"X","lists":["L1","L2"]}`, c.lastParams(t))
}

func TestCreateTask_BadPriority(t *testing.T) {
	c := &fakeCaller{}
	res := newAdapter(c).Dispatch(context.Background(), "eva_create_task", map[string]any{"name": "X", "priority": "high"})

	require.True(t, res.IsError)
	require.Equal(t, "'priority' must be an integer", envelope(t, res)["error"])
	require.Empty(t, c.methods)
}

func TestUpdateTask_OnlySuppliedFields(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.update": `{"code":"T-1","status":"done"}`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_update_task",
		map[string]any{"task_code": "T-1", "status": "done"})

	require.Equal(t, "CmfTask.update", c.lastMethod())
	require.JSONEq(t, `{"code":"T-1","status":"done"}`, c.lastParams(t))
	require.Equal(t, "Task updated successfully", envelope(t, res)["message"])
}

func TestUpdateTask_ZeroPriorityIsSent(t *testing.T) {
	c := &fakeCaller{}
	newAdapter(c).Dispatch(context.Background(), "eva_update_task",
		map[string]any{"task_code": "T-1", "priority": 0})
	require.JSONEq(t, `{"code":"T-1","priority":0}`, c.lastParams(t))
}

// --- Other entities ---

func TestEntityTools(t *testing.T) {
	tests := []struct {
		tool       string
		args       map[string]any
		method     string
		params     string
		reply      string
		key        string
		wantsCount bool
	}{
		{"eva_list_projects", nil, "CmfProject.list", `{"slice":[0,20]}`, `[{}]`, "projects", true},
		{"eva_list_projects", map[string]any{"query": "web"}, "CmfProject.list", `{"slice":[0,20],"filter":[["name","ilike","%web%"]]}`, `[]`, "projects", true},
		{"eva_get_project", map[string]any{"project_code": "P1"}, "CmfProject.get", `{"code":"P1"}`, `{}`, "project", false},
		{"eva_list_users", map[string]any{"limit": "5"}, "CmfPerson.list", `{"slice":[0,5]}`, `[]`, "users", true},
		{"eva_get_user", map[string]any{"user_code": "U1"}, "CmfPerson.get", `{"code":"U1"}`, `{}`, "user", false},
		{"eva_search_documents", map[string]any{"project": "P1", "query": "roadmap"}, "CmfDocument.list", `{"slice":[0,20],"filter":[["parent","=","P1"],["name","ilike","%roadmap%"]]}`, `[]`, "documents", true},
		{"eva_get_document", map[string]any{"document_code": "D1"}, "CmfDocument.get", `{"code":"D1"}`, `{}`, "document", false},
		{"eva_get_comments", map[string]any{"parent_code": "T-1"}, "CmfComment.list", `{"slice":[0,50],"filter":[["parent","=","T-1"]]}`, `[]`, "comments", true},
		{"eva_list_sprints", nil, "CmfList.list", `{"slice":[0,50]}`, `[]`, "lists", true},
		{"eva_list_sprints", map[string]any{"project": "P1"}, "CmfList.list", `{"slice":[0,50],"filter":[["parent","=","P1"]]}`, `[]`, "lists", true},
		{"eva_get_sprint", map[string]any{"list_code": "L1"}, "CmfList.get", `{"code":"L1"}`, `{}`, "list", false},
		{"eva_get_audit_log", map[string]any{"entity_code": "T-1", "limit": 3}, "CmfAudit.list", `{"slice":[0,3],"filter":[["object_code","=","T-1"]]}`, `[]`, "audit_log", true},
		{"eva_get_audit_log", nil, "CmfAudit.list", `{"slice":[0,50]}`, `[{"id":1}]`, "audit_log", true},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			c := &fakeCaller{replies: map[string]string{tt.method: tt.reply}}
			res := newAdapter(c).Dispatch(context.Background(), tt.tool, tt.args)

			require.False(t, res.IsError, resultText(res))
			require.Equal(t, tt.method, c.lastMethod())
			require.JSONEq(t, tt.params, c.lastParams(t))

			env := envelope(t, res)
			require.Equal(t, true, env["success"])
			require.Contains(t, env, tt.key)
			if tt.wantsCount {
				require.Contains(t, env, "count")
			}
		})
	}
}

func TestRequiredArguments(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"eva_get_project", nil, "'project_code' is required"},
		{"eva_get_user", nil, "'user_code' is required"},
		{"eva_get_document", nil, "'document_code' is required"},
		{"eva_get_comments", nil, "'parent_code' is required"},
		{"eva_add_comment", map[string]any{"parent_code": "T-1"}, "'text' is required"},
		{"eva_get_sprint", nil, "'list_code' is required"},
		{"eva_create_sprint", map[string]any{"name": "S1"}, "'project_code' is required"},
		{"eva_update_task", map[string]any{"status": "done"}, "'task_code' is required"},
		{"eva_create_task", nil, "'name' is required"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			c := &fakeCaller{}
			res := newAdapter(c).Dispatch(context.Background(), tt.tool, tt.args)

			require.True(t, res.IsError)
			env := envelope(t, res)
			require.Equal(t, tt.want, env["error"])
			require.NotContains(t, env, "code")
			require.Empty(t, c.methods)
		})
	}
}

func TestAddComment(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfComment.create": `{"code":"C1"}`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_add_comment",
		map[string]any{"parent_code": "T-1", "text": "LGTM"})

	require.Equal(t, "CmfComment.create", c.lastMethod())
	require.JSONEq(t, `{"parent":"T-1","text":"LGTM"}`, c.lastParams(t))
	require.Equal(t, "Comment added successfully", envelope(t, res)["message"])
}

func TestCreateSprint(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfList.create": `{"code":"L9"}`}}
	res := newAdapter(c).Dispatch(context.Background(), "eva_create_sprint",
		map[string]any{"name": "Sprint 12", "project_code": "P1"})

	require.Equal(t, "CmfList.create", c.lastMethod())
	require.JSONEq(t, `{"name":"Sprint 12","parent":"P1"}`, c.lastParams(t))
	env := envelope(t, res)
	require.Equal(t, map[string]any{"code": "L9"}, env["list"])
	require.Equal(t, "Sprint created successfully", env["message"])
}

func TestWriteToolsBlockedInReadOnly(t *testing.T) {
	writes := map[string]map[string]any{
		"eva_create_task":   {"name": "X"},
		"eva_update_task":   {"task_code": "T-1", "name": "Y"},
		"eva_add_comment":   {"parent_code": "T-1", "text": "hi"},
		"eva_create_sprint": {"name": "S", "project_code": "P1"},
	}
	for tool, args := range writes {
		t.Run(tool, func(t *testing.T) {
			c := &fakeCaller{readOnly: true}
			res := newAdapter(c).Dispatch(context.Background(), tool, args)

			require.True(t, res.IsError)
			require.EqualValues(t, rpc.CodePolicyViolation, envelope(t, res)["code"])
			require.Empty(t, c.methods)
		})
	}
}

func TestBackendErrorsBecomeEnvelopes(t *testing.T) {
	c := &fakeCaller{errs: map[string]error{
		"CmfProject.list": &rpc.RPCError{Code: -32603, Message: "Internal error"},
		"CmfPerson.list":  errors.New("CmfPerson.list: decoding list: boom"),
	}}
	a := newAdapter(c)

	env := envelope(t, a.Dispatch(context.Background(), "eva_list_projects", nil))
	require.Equal(t, "Internal error", env["error"])
	require.EqualValues(t, -32603, env["code"])

	env = envelope(t, a.Dispatch(context.Background(), "eva_list_users", nil))
	require.Equal(t, "CmfPerson.list: decoding list: boom", env["error"])
	require.NotContains(t, env, "code")
}

// --- Call history ---

func TestCallHistory(t *testing.T) {
	code := -32001
	h := &fakeHistory{entries: []journal.Entry{
		{ID: 2, Method: "CmfTask.create", Outcome: "policy_violation", Code: &code},
		{ID: 1, CallID: "abc", Method: "CmfTask.get", Outcome: "ok"},
	}}
	c := &fakeCaller{}
	a := NewAdapter(eva.New(c), h)

	res := a.Dispatch(context.Background(), "eva_call_history", map[string]any{"method": "CmfTask.get"})

	require.False(t, res.IsError)
	require.Equal(t, 20, h.limit)
	require.Equal(t, "CmfTask.get", h.method)
	require.Empty(t, c.methods, "history must not reach the backend")

	env := envelope(t, res)
	require.EqualValues(t, 2, env["count"])
	calls := env["calls"].([]any)
	require.Equal(t, "CmfTask.create", calls[0].(map[string]any)["method"])
}

func TestQueryIsSentUntrimmed(t *testing.T) {
	c := &fakeCaller{replies: map[string]string{"CmfTask.list": `[]`}}
	newAdapter(c).Dispatch(context.Background(), "eva_search_tasks", map[string]any{"query": " foo "})
	require.JSONEq(t, `{"filter":[["name","ilike","% foo %"]],"slice":[0,20],"include_archived":false}`, c.lastParams(t))
}

func TestFail_RPCErrorWithoutCode(t *testing.T) {
	env := envelope(t, fail(&rpc.RPCError{Message: "boom", NoCode: true}))
	require.Equal(t, false, env["success"])
	require.Equal(t, "boom", env["error"])
	require.NotContains(t, env, "code")
}
