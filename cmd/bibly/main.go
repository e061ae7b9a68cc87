// Bibly: Bible reading-plan agent
//
// Builds themed, multi-day Bible reading plans and serves them over
// JSON-RPC 2.0 (A2A) on HTTP, or as an MCP server on stdio.
//
// Usage:
//
//	bibly serve          # Start the A2A HTTP endpoint
//	bibly mcp            # Start the MCP server (stdio transport)
//	bibly parse <text>   # Show how a message is interpreted
//	bibly version        # Print the version
package main

import (
	"os"

	"github.com/HendryAvila/bibly/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
