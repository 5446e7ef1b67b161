package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/phpsniff/phpsniff/internal/application"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// registerTools registers all phpsniff MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string, svc *application.ScanService) {
	// 1. phpsniff_scan
	s.AddTool(
		sessionTool("phpsniff_scan",
			"Scan PHP files with phpcs against the WordPress standards. Returns totals, per-file diagnostics and the auto-fixable files as JSON",
		),
		handleScan(projectPath, svc, false),
	)

	// 2. phpsniff_fix
	s.AddTool(
		sessionTool("phpsniff_fix",
			"Scan PHP files, then run phpcbf on every file with fixable violations. Returns the scan plus each file's fix outcome",
		),
		handleScan(projectPath, svc, true),
	)

	// 3. phpsniff_rulesets
	s.AddTool(
		mcplib.NewTool("phpsniff_rulesets",
			mcplib.WithDescription("Lists the known WordPress rulesets and the default used for unknown names"),
		),
		handleRulesets(),
	)

	// 4. phpsniff_history
	s.AddTool(
		mcplib.NewTool("phpsniff_history",
			mcplib.WithDescription("Returns the runs recorded for the project"),
		),
		handleHistory(projectPath, svc),
	)
}

// sessionTool declares a tool taking the arguments of a scan session.
func sessionTool(name, description string) mcplib.Tool {
	return mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithString("paths", mcplib.Description("Comma-separated files or directories, relative to the project root (default: the project root)")),
		mcplib.WithString("ruleset", mcplib.Description("Ruleset or comma-separated rulesets (default from .phpsniff.yaml)")),
		mcplib.WithString("exclude", mcplib.Description("Comma-separated glob patterns to skip")),
		mcplib.WithBoolean("changed_only", mcplib.Description("Only scan files changed in the git worktree")),
		mcplib.WithBoolean("record", mcplib.Description("Append the run to the project history")),
	)
}

func handleScan(projectPath string, svc *application.ScanService, fix bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args := request.GetArguments()
		pathsStr, _ := args["paths"].(string)
		ruleset, _ := args["ruleset"].(string)
		excludeStr, _ := args["exclude"].(string)
		changedOnly, _ := args["changed_only"].(bool)
		record, _ := args["record"].(bool)

		var paths []string
		for _, p := range splitAndTrim(pathsStr) {
			if !filepath.IsAbs(p) {
				p = filepath.Join(projectPath, p)
			}
			paths = append(paths, p)
		}

		req := application.ScanRequest{
			ProjectPath: projectPath,
			Paths:       paths,
			Overrides: domain.ProjectConfig{
				Ruleset: domain.Ruleset(ruleset),
				Exclude: splitAndTrim(excludeStr),
			},
			Fix:         fix,
			ChangedOnly: changedOnly,
			Record:      record,
		}

		outcome, err := svc.Run(ctx, req, events.NewBus())
		if err != nil {
			return errorResult(fmt.Sprintf("scan failed: %v", err)), nil
		}
		return jsonResult(outcome)
	}
}

type rulesetInfo struct {
	Name        domain.Ruleset `json:"name"`
	Description string         `json:"description"`
}

type rulesetCatalog struct {
	Rulesets []rulesetInfo  `json:"rulesets"`
	Default  domain.Ruleset `json:"default"`
}

func catalog() rulesetCatalog {
	c := rulesetCatalog{Default: domain.DefaultRuleset}
	for _, r := range domain.Rulesets() {
		c.Rulesets = append(c.Rulesets, rulesetInfo{Name: r, Description: r.Describe()})
	}
	return c
}

func handleRulesets() server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return jsonResult(catalog())
	}
}

func handleHistory(projectPath string, svc *application.ScanService) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		entries, err := svc.History(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading history: %v", err)), nil
		}
		if len(entries) == 0 {
			return textResult("No runs recorded. Pass record=true to phpsniff_scan to start a history."), nil
		}
		return jsonResult(entries)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// jsonResult marshals v into an indented JSON text result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
