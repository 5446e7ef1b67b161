package cli

import (
	"fmt"
	"path/filepath"

	mcpadapter "github.com/phpsniff/phpsniff/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the phpsniff MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(d))
	return cmd
}

func newMCPServeCmd(d deps) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start phpsniff MCP server (stdio)",
		Long:  "Start the phpsniff MCP server using stdio transport. This allows AI coding assistants to scan and fix PHP files against the WordPress standards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectPath == "" {
				projectPath = "."
			}
			absPath, err := filepath.Abs(projectPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			s := mcpadapter.NewPhpsniffMCPServer(absPath, d.scanService())
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", "", "Project path (defaults to current working directory)")

	return cmd
}
