// Package resources implements the MCP resources exposed by eva-mcp.
//
// Resources are read-only and addressed by eva:// URIs.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/eva-mcp/internal/journal"
)

// StatusURI addresses the server status resource.
const StatusURI = "eva://server/status"

// StatsSource reports journal totals. *journal.Store satisfies it.
type StatsSource interface {
	Stats() (*journal.Stats, error)
}

// Status is the snapshot rendered by the status resource.
type Status struct {
	Version        string         `json:"version"`
	APIURL         string         `json:"api_url"`
	ReadOnly       bool           `json:"read_only"`
	TimeoutSeconds float64        `json:"timeout_seconds"`
	Journal        *journal.Stats `json:"journal,omitempty"`
	JournalError   string         `json:"journal_error,omitempty"`
}

// Handler serves the server status resource.
type Handler struct {
	status  Status
	journal StatsSource
}

// NewHandler creates a Handler. journal may be nil when the journal is off.
func NewHandler(status Status, journal StatsSource) *Handler {
	return &Handler{status: status, journal: journal}
}

// StatusResource returns the MCP resource definition for the server status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Eva MCP Server Status",
		mcp.WithResourceDescription("Backend URL, read-only mode, timeout and call journal totals"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current status as JSON. The API token is never
// part of it.
func (h *Handler) HandleStatus(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := h.status
	if h.journal != nil {
		stats, err := h.journal.Stats()
		if err != nil {
			status.JournalError = err.Error()
		} else {
			status.Journal = stats
		}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
