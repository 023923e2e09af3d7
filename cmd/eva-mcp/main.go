// eva-mcp exposes the Eva project-management API as MCP tools.
//
// Usage:
//
//	eva-mcp serve     # Start MCP server (stdio transport)
//	eva-mcp call      # One raw JSON-RPC call, read-only by default
//	eva-mcp doctor    # Validate configuration
//	eva-mcp update    # Update to the latest release
package main

import "github.com/HendryAvila/eva-mcp/internal/cli"

func main() {
	cli.Execute()
}
