package eva

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/HendryAvila/eva-mcp/internal/rpc"
	"github.com/stretchr/testify/require"
)

// recordingCaller remembers the last call and replies with a canned result.
type recordingCaller struct {
	method string
	params rpc.Params
	calls  int

	result string
	err    error
}

func (c *recordingCaller) Call(_ context.Context, method string, params rpc.Params) (json.RawMessage, error) {
	c.calls++
	c.method = method
	c.params = params
	if c.err != nil {
		return nil, c.err
	}
	if c.result == "" {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(c.result), nil
}

// paramsJSON renders the recorded params the way they go on the wire.
func (c *recordingCaller) paramsJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(c.params)
	require.NoError(t, err)
	return string(data)
}

func intPtr(v int) *int { return &v }

// --- Filter / Page encoding ---

func TestFilter_EncodesAsTriple(t *testing.T) {
	data, err := json.Marshal([]Filter{Contains("name", "foo"), Eq("parent", "P1")})
	require.NoError(t, err)
	require.JSONEq(t, `[["name","ilike","%foo%"],["parent","=","P1"]]`, string(data))
}

func TestFilter_RoundTrip(t *testing.T) {
	var f Filter
	require.NoError(t, json.Unmarshal([]byte(`["status","!=","closed"]`), &f))
	require.Equal(t, Filter{Field: "status", Op: OpNotEq, Value: "closed"}, f)

	require.Error(t, json.Unmarshal([]byte(`["status","="]`), &f))
}

func TestPage_Encoding(t *testing.T) {
	data, err := json.Marshal(Page{Offset: 40, Limit: 20})
	require.NoError(t, err)
	require.JSONEq(t, `[40,60]`, string(data))
}

func TestPage_Normalize(t *testing.T) {
	require.Equal(t, Page{Offset: 0, Limit: 50}, Page{Offset: -5, Limit: 0}.normalize(50))
	require.Equal(t, Page{Offset: 3, Limit: 7}, Page{Offset: 3, Limit: 7}.normalize(50))
}

// --- list ---

func TestListTasks_Params(t *testing.T) {
	c := &recordingCaller{result: `[{"code":"TASK-1"},{"code":"TASK-2"}]`}
	ops := New(c)

	got, err := ops.ListTasks(context.Background(), ListOptions{
		Filters: []Filter{Contains("name", "foo")},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "CmfTask.list", c.method)
	require.JSONEq(t,
		`{"slice":[0,10],"include_archived":false,"filter":[["name","ilike","%foo%"]]}`,
		c.paramsJSON(t))
}

func TestListTasks_OmitsEmptyKeys(t *testing.T) {
	c := &recordingCaller{result: `[]`}
	ops := New(c)

	_, err := ops.ListTasks(context.Background(), ListOptions{
		Filters: []Filter{},
		Fields:  []string{},
		OrderBy: nil,
	})
	require.NoError(t, err)

	for _, key := range []string{"filter", "fields", "order_by"} {
		require.NotContains(t, c.params, key)
	}
	require.JSONEq(t, `{"slice":[0,20],"include_archived":false}`, c.paramsJSON(t))
}

func TestListTasks_AllOptions(t *testing.T) {
	c := &recordingCaller{result: `[]`}
	ops := New(c)

	_, err := ops.ListTasks(context.Background(), ListOptions{
		Filters:         []Filter{Eq("parent", "PRJ-1")},
		Limit:           5,
		Offset:          15,
		Fields:          []string{"code", "name"},
		OrderBy:         []string{"-cmf_created_at"},
		IncludeArchived: true,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"slice":[15,20],
		"include_archived":true,
		"filter":[["parent","=","PRJ-1"]],
		"fields":["code","name"],
		"order_by":["-cmf_created_at"]
	}`, c.paramsJSON(t))
}

func TestList_MethodsAndDefaults(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		call      func(*Operations) ([]json.RawMessage, error)
		method    string
		wantSlice string
	}{
		{"projects", func(o *Operations) ([]json.RawMessage, error) { return o.ListProjects(ctx, ListOptions{}) }, "CmfProject.list", `[0,20]`},
		{"users", func(o *Operations) ([]json.RawMessage, error) { return o.ListUsers(ctx, ListOptions{}) }, "CmfPerson.list", `[0,50]`},
		{"documents", func(o *Operations) ([]json.RawMessage, error) { return o.ListDocuments(ctx, ListOptions{}) }, "CmfDocument.list", `[0,20]`},
		{"comments", func(o *Operations) ([]json.RawMessage, error) { return o.ListComments(ctx, ListOptions{}) }, "CmfComment.list", `[0,50]`},
		{"lists", func(o *Operations) ([]json.RawMessage, error) { return o.ListLists(ctx, ListOptions{}) }, "CmfList.list", `[0,50]`},
		{"audit", func(o *Operations) ([]json.RawMessage, error) { return o.ListAudit(ctx, ListOptions{}) }, "CmfAudit.list", `[0,50]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &recordingCaller{}
			got, err := tt.call(New(c))
			require.NoError(t, err)
			require.NotNil(t, got, "null result should decode to an empty slice")
			require.Empty(t, got)
			require.Equal(t, tt.method, c.method)
			require.JSONEq(t, `{"slice":`+tt.wantSlice+`}`, c.paramsJSON(t))
		})
	}
}

func TestList_NonArrayResult(t *testing.T) {
	c := &recordingCaller{result: `{"code":"oops"}`}
	_, err := New(c).ListProjects(context.Background(), ListOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "CmfProject.list")
}

// --- get / count ---

func TestGet_Methods(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		call   func(*Operations) (json.RawMessage, error)
		method string
	}{
		{func(o *Operations) (json.RawMessage, error) { return o.GetTask(ctx, "X") }, "CmfTask.get"},
		{func(o *Operations) (json.RawMessage, error) { return o.GetProject(ctx, "X") }, "CmfProject.get"},
		{func(o *Operations) (json.RawMessage, error) { return o.GetUser(ctx, "X") }, "CmfPerson.get"},
		{func(o *Operations) (json.RawMessage, error) { return o.GetDocument(ctx, "X") }, "CmfDocument.get"},
		{func(o *Operations) (json.RawMessage, error) { return o.GetList(ctx, "X") }, "CmfList.get"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			c := &recordingCaller{result: `{"code":"X"}`}
			got, err := tt.call(New(c))
			require.NoError(t, err)
			require.JSONEq(t, `{"code":"X"}`, string(got))
			require.Equal(t, tt.method, c.method)
			require.Equal(t, rpc.Params{"code": "X"}, c.params)
		})
	}
}

func TestCountTasks(t *testing.T) {
	c := &recordingCaller{result: `42`}
	n, err := New(c).CountTasks(context.Background(), []Filter{Eq("parent", "P1")})
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
	require.Equal(t, "CmfTask.count", c.method)
	require.JSONEq(t, `{"filter":[["parent","=","P1"]]}`, c.paramsJSON(t))
}

func TestCountProjects_NoFilter(t *testing.T) {
	c := &recordingCaller{result: `3`}
	n, err := New(c).CountProjects(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, "CmfProject.count", c.method)
	require.Empty(t, c.params)
}

func TestCount_BadResult(t *testing.T) {
	c := &recordingCaller{result: `"many"`}
	_, err := New(c).CountTasks(context.Background(), nil)
	require.Error(t, err)
}

func TestCount_NullResult(t *testing.T) {
	c := &recordingCaller{result: `null`}
	_, err := New(c).CountTasks(context.Background(), nil)
	require.ErrorContains(t, err, "decoding count")
}

// --- create / update ---

func TestCreateTask_OnlySuppliedFields(t *testing.T) {
	c := &recordingCaller{result: `{"code":"TASK-9"}`}
	_, err := New(c).CreateTask(context.Background(), NewTask{Name: "Write docs"})
	require.NoError(t, err)
	require.Equal(t, "CmfTask.create", c.method)
	require.Equal(t, rpc.Params{"name": "Write docs"}, c.params)
}

func TestCreateTask_AllFieldsAndExtra(t *testing.T) {
	c := &recordingCaller{result: `{}`}
	_, err := New(c).CreateTask(context.Background(), NewTask{
		Name:        "Write docs",
		Parent:      "PRJ-1",
		Lists:       []string{"SPR-000929"},
		Text:        "<p>body</p>",
		Responsible: "dev@example.com",
		Priority:    intPtr(0),
		Extra:       rpc.Params{"name": "shadowed", "deadline": "2026-11-01"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name":"Write docs",
		"parent":"PRJ-1",
		"lists":["SPR-000929"],
		"text":"<p>body</p>",
		"responsible":"dev@example.com",
		"priority":0,
		"deadline":"2026-11-01"
	}`, c.paramsJSON(t))
}

func TestUpdateTask(t *testing.T) {
	c := &recordingCaller{result: `{}`}
	_, err := New(c).UpdateTask(context.Background(), "TASK-1", TaskChanges{
		Status: "closed",
		Extra:  rpc.Params{"code": "OTHER"},
	})
	require.NoError(t, err)
	require.Equal(t, "CmfTask.update", c.method)
	require.Equal(t, rpc.Params{"code": "TASK-1", "status": "closed"}, c.params)
}

func TestCreateCommentAndList(t *testing.T) {
	c := &recordingCaller{result: `{}`}
	ops := New(c)

	_, err := ops.CreateComment(context.Background(), NewComment{Parent: "TASK-1", Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, "CmfComment.create", c.method)
	require.Equal(t, rpc.Params{"parent": "TASK-1", "text": "hi"}, c.params)

	_, err = ops.CreateList(context.Background(), NewList{Name: "Sprint 12", Parent: "PRJ-1"})
	require.NoError(t, err)
	require.Equal(t, "CmfList.create", c.method)
	require.Equal(t, rpc.Params{"name": "Sprint 12", "parent": "PRJ-1"}, c.params)
}

func TestErrorsPassThrough(t *testing.T) {
	want := &rpc.RPCError{Code: -32600, Message: "Invalid Request"}
	c := &recordingCaller{err: want}

	_, err := New(c).ListTasks(context.Background(), ListOptions{})
	require.True(t, errors.Is(err, want))

	_, err = New(c).CountTasks(context.Background(), nil)
	require.True(t, errors.Is(err, want))
}
