// Package bootstrap checks for the analysis tool and its WordPress
// standards, installing them when a project configures how.
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phpsniff/phpsniff/internal/domain"
)

// standardMarker must appear in the tool's list of installed standards.
const standardMarker = "WordPress"

// Installer implements domain.Installer on top of a process runner.
type Installer struct {
	runner  domain.ProcessRunner
	tools   domain.Tools
	install []string
	lookup  func(domain.Command) bool
}

// New creates an installer. installCommand is the argv run by Install; it
// may be empty, in which case Install always fails.
func New(runner domain.ProcessRunner, tools domain.Tools, installCommand []string, lookup func(domain.Command) bool) *Installer {
	return &Installer{
		runner:  runner,
		tools:   tools,
		install: installCommand,
		lookup:  lookup,
	}
}

// Installed reports whether the analysis tool can be run and lists the
// WordPress standards.
func (i *Installer) Installed(ctx context.Context) (bool, error) {
	cmd := i.tools.InfoCommand()
	if i.lookup != nil && !i.lookup(cmd) {
		slog.Debug("analysis tool not on PATH", "path", cmd.Path)
		return false, nil
	}

	var stdout, stderr bytes.Buffer
	proc, err := i.runner.Start(ctx, cmd, &stdout, &stderr)
	if err != nil {
		slog.Debug("analysis tool failed to start", "path", cmd.Path, "error", err)
		return false, nil
	}
	if err := proc.Wait(); err != nil {
		slog.Debug("listing installed standards failed", "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return false, nil
	}
	return strings.Contains(stdout.String(), standardMarker), nil
}

// Install runs the configured install command to completion.
func (i *Installer) Install(ctx context.Context) error {
	if len(i.install) == 0 {
		return fmt.Errorf("no install_command configured")
	}

	cmd := domain.Command{Path: i.install[0], Args: i.install[1:]}
	var output bytes.Buffer
	proc, err := i.runner.Start(ctx, cmd, &output, &output)
	if err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	if err := proc.Wait(); err != nil {
		return fmt.Errorf("running %s: %w: %s", strings.Join(i.install, " "), err, strings.TrimSpace(output.String()))
	}
	slog.Info("analysis tool installed", "command", strings.Join(i.install, " "))
	return nil
}
