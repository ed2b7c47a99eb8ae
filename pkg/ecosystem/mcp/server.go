// Package mcp exposes mobup's read-only surfaces to AI agents over the
// Model Context Protocol. No tool registered here mutates the machine.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with mobup tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mobup",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.AddTool(
		mcp.NewTool("mobup/status",
			mcp.WithDescription("Report which toolchain components are installed on this host"),
			mcp.WithString("config", mcp.Description("Path to a mobup manifest YAML file (optional, defaults apply)")),
		),
		HandleStatus,
	)

	s.AddTool(
		mcp.NewTool("mobup/plan",
			mcp.WithDescription("Preview the setup steps mobup would run, without changing anything"),
			mcp.WithString("config", mcp.Description("Path to a mobup manifest YAML file (optional, defaults apply)")),
		),
		HandlePlan,
	)

	s.AddTool(
		mcp.NewTool("mobup/doctor",
			mcp.WithDescription("Run flutter doctor on the provisioned toolchain and report one healthy/unhealthy verdict"),
			mcp.WithString("config", mcp.Description("Path to a mobup manifest YAML file (optional, defaults apply)")),
		),
		HandleDoctor,
	)

	s.AddTool(
		mcp.NewTool("mobup/validate",
			mcp.WithDescription("Validate a mobup manifest YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the manifest YAML file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("mobup/schema",
			mcp.WithDescription("Export the mobup manifest JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
