package cli

import (
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/bootstrap"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/config"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/discovery"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/gitinfo"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/history"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/process"
	"github.com/phpsniff/phpsniff/internal/application"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/spf13/cobra"
)

// deps are the outbound adapters commands are built on.
type deps struct {
	runner domain.ProcessRunner
	// lookup checks the analysis tool is on PATH before asking it anything.
	// Nil skips the check.
	lookup func(domain.Command) bool
}

func defaultDeps() deps {
	return deps{runner: process.NewExecRunner(), lookup: process.LookPath}
}

// NewRootCmdWithRunner returns the root command with tool processes spawned
// through runner. Tests use it to stand in for the analysis tools.
func NewRootCmdWithRunner(runner domain.ProcessRunner) *cobra.Command {
	return newRootCmdWith(deps{runner: runner})
}

func (d deps) scanService() *application.ScanService {
	git := gitinfo.New()
	return application.NewScanService(
		config.New(),
		discovery.New(),
		d.runner,
		func(cfg domain.ProjectConfig) domain.Installer {
			return bootstrap.New(d.runner, cfg.Tools, cfg.InstallCommand, d.lookup)
		},
		git,
		git,
		history.New(),
	)
}
