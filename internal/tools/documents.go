package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/eva"
)

// SearchDocumentsTool handles the eva_search_documents MCP tool.
type SearchDocumentsTool struct {
	ops Backend
}

// NewSearchDocumentsTool creates a SearchDocumentsTool.
func NewSearchDocumentsTool(ops Backend) *SearchDocumentsTool {
	return &SearchDocumentsTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_search_documents.
func (t *SearchDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_search_documents",
		mcp.WithDescription("Search Eva documents by name and project."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Description("Text to look for in the document name")),
		mcp.WithString("project", mcp.Description("Project code the document belongs to")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip (default: 0)")),
	)
}

// Handle processes the eva_search_documents tool call.
func (t *SearchDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filters []eva.Filter
	if project := stringArg(req, "project"); project != "" {
		filters = append(filters, eva.Eq("parent", project))
	}
	if q := queryArg(req); q != "" {
		filters = append(filters, eva.Contains("name", q))
	}

	docs, err := t.ops.ListDocuments(ctx, eva.ListOptions{
		Filters: filters,
		Limit:   intArg(req, "limit", eva.Documents.DefaultLimit),
		Offset:  offsetArg(req),
	})
	if err != nil {
		return fail(err), nil
	}
	return listResult("documents", docs), nil
}

// GetDocumentTool handles the eva_get_document MCP tool.
type GetDocumentTool struct {
	ops Backend
}

// NewGetDocumentTool creates a GetDocumentTool.
func NewGetDocumentTool(ops Backend) *GetDocumentTool {
	return &GetDocumentTool{ops: ops}
}

// Definition returns the MCP tool definition for eva_get_document.
func (t *GetDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("eva_get_document",
		mcp.WithDescription("Get a single Eva document by its code, including its content."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("document_code", mcp.Required(), mcp.Description("Document code")),
	)
}

// Handle processes the eva_get_document tool call.
func (t *GetDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := stringArg(req, "document_code")
	if code == "" {
		return fail(required("document_code")), nil
	}

	doc, err := t.ops.GetDocument(ctx, code)
	if err != nil {
		return fail(err), nil
	}
	return ok(field{"document", doc}), nil
}
