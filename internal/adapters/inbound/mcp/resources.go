package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/phpsniff/phpsniff/internal/application"
)

// registerResources registers all phpsniff MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string, svc *application.ScanService) {
	// 1. phpsniff://rulesets - ruleset catalog
	s.AddResource(
		mcplib.NewResource(
			"phpsniff://rulesets",
			"Rulesets",
			mcplib.WithResourceDescription("Known WordPress rulesets and the fallback default"),
			mcplib.WithMIMEType("application/json"),
		),
		jsonResource("phpsniff://rulesets", func() (any, error) { return catalog(), nil }),
	)

	// 2. phpsniff://config - resolved project configuration
	s.AddResource(
		mcplib.NewResource(
			"phpsniff://config",
			"Configuration",
			mcplib.WithResourceDescription("Project configuration with defaults applied"),
			mcplib.WithMIMEType("application/json"),
		),
		jsonResource("phpsniff://config", func() (any, error) {
			return svc.LoadConfig(application.ScanRequest{ProjectPath: projectPath})
		}),
	)

	// 3. phpsniff://history - recorded runs
	s.AddResource(
		mcplib.NewResource(
			"phpsniff://history",
			"Run History",
			mcplib.WithResourceDescription("Runs recorded for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		jsonResource("phpsniff://history", func() (any, error) { return svc.History(projectPath) }),
	)
}

func jsonResource(uri string, load func() (any, error)) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		v, err := load()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", uri, err)
		}

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", uri, err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
