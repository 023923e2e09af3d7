package eva

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/eva-mcp/internal/rpc"
)

// Caller sends one JSON-RPC call. *rpc.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, params rpc.Params) (json.RawMessage, error)
}

// Entity is a backend model namespace plus its default page size.
type Entity struct {
	Model        string
	DefaultLimit int
}

// Method returns the namespaced method name, e.g. "CmfTask.list".
func (e Entity) Method(action string) string {
	return e.Model + "." + action
}

// Known entities.
var (
	Tasks     = Entity{Model: "CmfTask", DefaultLimit: 20}
	Projects  = Entity{Model: "CmfProject", DefaultLimit: 20}
	Users     = Entity{Model: "CmfPerson", DefaultLimit: 50}
	Documents = Entity{Model: "CmfDocument", DefaultLimit: 20}
	Comments  = Entity{Model: "CmfComment", DefaultLimit: 50}
	Lists     = Entity{Model: "CmfList", DefaultLimit: 50}
	Audit     = Entity{Model: "CmfAudit", DefaultLimit: 50}
)

// ListOptions narrows a list call. Zero values mean "unconstrained" and
// the matching keys are left out of the request.
type ListOptions struct {
	Filters []Filter
	Limit   int
	Offset  int
	Fields  []string
	OrderBy []string

	// IncludeArchived only applies to tasks.
	IncludeArchived bool
}

// Operations exposes typed calls per entity on top of a Caller.
type Operations struct {
	caller Caller
}

// New creates Operations backed by caller.
func New(caller Caller) *Operations {
	return &Operations{caller: caller}
}

// ─── Generic helpers ────────────────────────────────────────────────────────

func (o *Operations) get(ctx context.Context, e Entity, code string) (json.RawMessage, error) {
	return o.caller.Call(ctx, e.Method("get"), rpc.Params{"code": code})
}

func (o *Operations) list(ctx context.Context, e Entity, opts ListOptions, params rpc.Params) ([]json.RawMessage, error) {
	if params == nil {
		params = rpc.Params{}
	}
	params["slice"] = Page{Offset: opts.Offset, Limit: opts.Limit}.normalize(e.DefaultLimit)
	if len(opts.Filters) > 0 {
		params["filter"] = opts.Filters
	}
	if len(opts.Fields) > 0 {
		params["fields"] = opts.Fields
	}
	if len(opts.OrderBy) > 0 {
		params["order_by"] = opts.OrderBy
	}

	method := e.Method("list")
	raw, err := o.caller.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return decodeList(method, raw)
}

func (o *Operations) count(ctx context.Context, e Entity, filters []Filter) (int64, error) {
	params := rpc.Params{}
	if len(filters) > 0 {
		params["filter"] = filters
	}

	method := e.Method("count")
	raw, err := o.caller.Call(ctx, method, params)
	if err != nil {
		return 0, err
	}

	var n *int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s: decoding count: %w", method, err)
	}
	if n == nil {
		return 0, fmt.Errorf("%s: decoding count: result is null", method)
	}
	return *n, nil
}

func decodeList(method string, raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: decoding list: %w", method, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// NewTask describes a task to create. Empty fields are not sent.
type NewTask struct {
	Name        string
	Parent      string
	Lists       []string
	Text        string
	Responsible string
	Priority    *int
	Extra       rpc.Params
}

// TaskChanges describes a partial task update. Empty fields are not sent.
type TaskChanges struct {
	Name        string
	Text        string
	Responsible string
	Status      string
	Priority    *int
	Extra       rpc.Params
}

// GetTask fetches a task by code.
func (o *Operations) GetTask(ctx context.Context, code string) (json.RawMessage, error) {
	return o.get(ctx, Tasks, code)
}

// ListTasks lists tasks. include_archived is always sent.
func (o *Operations) ListTasks(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Tasks, opts, rpc.Params{"include_archived": opts.IncludeArchived})
}

// CountTasks counts tasks matching filters.
func (o *Operations) CountTasks(ctx context.Context, filters []Filter) (int64, error) {
	return o.count(ctx, Tasks, filters)
}

// CreateTask creates a task. This is a write and is refused in read-only mode.
func (o *Operations) CreateTask(ctx context.Context, t NewTask) (json.RawMessage, error) {
	params := rpc.Params{"name": t.Name}
	setString(params, "parent", t.Parent)
	setStrings(params, "lists", t.Lists)
	setString(params, "text", t.Text)
	setString(params, "responsible", t.Responsible)
	setInt(params, "priority", t.Priority)
	return o.caller.Call(ctx, Tasks.Method("create"), params.Merge(t.Extra))
}

// UpdateTask applies changes to the task with the given code.
func (o *Operations) UpdateTask(ctx context.Context, code string, c TaskChanges) (json.RawMessage, error) {
	params := rpc.Params{"code": code}
	setString(params, "name", c.Name)
	setString(params, "text", c.Text)
	setString(params, "responsible", c.Responsible)
	setString(params, "status", c.Status)
	setInt(params, "priority", c.Priority)
	return o.caller.Call(ctx, Tasks.Method("update"), params.Merge(c.Extra))
}

// ─── Projects ───────────────────────────────────────────────────────────────

// GetProject fetches a project by code.
func (o *Operations) GetProject(ctx context.Context, code string) (json.RawMessage, error) {
	return o.get(ctx, Projects, code)
}

// ListProjects lists projects.
func (o *Operations) ListProjects(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Projects, opts, nil)
}

// CountProjects counts projects matching filters.
func (o *Operations) CountProjects(ctx context.Context, filters []Filter) (int64, error) {
	return o.count(ctx, Projects, filters)
}

// ─── Users ──────────────────────────────────────────────────────────────────

// GetUser fetches a person by code (login or email also work on most installs).
func (o *Operations) GetUser(ctx context.Context, code string) (json.RawMessage, error) {
	return o.get(ctx, Users, code)
}

// ListUsers lists people.
func (o *Operations) ListUsers(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Users, opts, nil)
}

// ─── Documents ──────────────────────────────────────────────────────────────

// GetDocument fetches a document by code.
func (o *Operations) GetDocument(ctx context.Context, code string) (json.RawMessage, error) {
	return o.get(ctx, Documents, code)
}

// ListDocuments lists documents.
func (o *Operations) ListDocuments(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Documents, opts, nil)
}

// ─── Comments ───────────────────────────────────────────────────────────────

// NewComment describes a comment on a task or document.
type NewComment struct {
	Parent string
	Text   string
	Extra  rpc.Params
}

// ListComments lists comments.
func (o *Operations) ListComments(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Comments, opts, nil)
}

// CreateComment adds a comment. Parent and text are always sent.
func (o *Operations) CreateComment(ctx context.Context, c NewComment) (json.RawMessage, error) {
	params := rpc.Params{"parent": c.Parent, "text": c.Text}
	return o.caller.Call(ctx, Comments.Method("create"), params.Merge(c.Extra))
}

// ─── Lists / sprints ────────────────────────────────────────────────────────

// NewList describes a list (sprint) to create under a project.
type NewList struct {
	Name   string
	Parent string
	Extra  rpc.Params
}

// GetList fetches a list or sprint by code.
func (o *Operations) GetList(ctx context.Context, code string) (json.RawMessage, error) {
	return o.get(ctx, Lists, code)
}

// ListLists lists lists and sprints.
func (o *Operations) ListLists(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Lists, opts, nil)
}

// CreateList creates a list under a project.
func (o *Operations) CreateList(ctx context.Context, l NewList) (json.RawMessage, error) {
	params := rpc.Params{"name": l.Name, "parent": l.Parent}
	return o.caller.Call(ctx, Lists.Method("create"), params.Merge(l.Extra))
}

// ─── Audit ──────────────────────────────────────────────────────────────────

// ListAudit lists audit log entries.
func (o *Operations) ListAudit(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	return o.list(ctx, Audit, opts, nil)
}

// ─── Param helpers ──────────────────────────────────────────────────────────

func setString(p rpc.Params, key, v string) {
	if v != "" {
		p[key] = v
	}
}

func setStrings(p rpc.Params, key string, v []string) {
	if len(v) > 0 {
		p[key] = v
	}
}

func setInt(p rpc.Params, key string, v *int) {
	if v != nil {
		p[key] = *v
	}
}
