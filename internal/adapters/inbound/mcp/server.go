package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/phpsniff/phpsniff/internal/application"
)

// NewPhpsniffMCPServer creates a new MCP server with all phpsniff tools and
// resources registered. The projectPath is the root directory holding the
// project configuration; relative scan paths are resolved against it.
func NewPhpsniffMCPServer(projectPath string, svc *application.ScanService) *server.MCPServer {
	s := server.NewMCPServer(
		"phpsniff",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath, svc)
	registerResources(s, projectPath, svc)

	return s
}
