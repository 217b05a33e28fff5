// Package tools holds the tool plumbing behind the MCP server.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/openrouter-mcp/pkg/tools/toolbox]: the Tool type and
//     the ToolBox registry, with middleware for logging, timeouts and panic recovery
//   - [github.com/germanamz/openrouter-mcp/pkg/tools/mcpserver]: exposes a set of
//     tools over MCP using the official Go SDK (github.com/modelcontextprotocol/go-sdk)
//
// The toolbox sub-package is the foundation layer; mcpserver depends on it for
// the Tool type.
package tools
