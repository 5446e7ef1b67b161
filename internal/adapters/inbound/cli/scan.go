package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phpsniff/phpsniff/internal/adapters/outbound/gitinfo"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/tui"
	"github.com/phpsniff/phpsniff/internal/application"
	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// runFlags are shared by every command that starts a session.
type runFlags struct {
	project     string
	configFile  string
	ruleset     string
	excludes    []string
	debug       bool
	changed     bool
	record      bool
	jsonOutput  bool
	quiet       bool
	ci          bool
	concurrency int
	timeout     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.project, "project", ".", "Project root holding .phpsniff.yaml and run history")
	cmd.Flags().StringVar(&f.configFile, "config", "", "Explicit config file (overrides <project>/.phpsniff.yaml)")
	cmd.Flags().StringVarP(&f.ruleset, "ruleset", "r", "", "Ruleset or comma-separated rulesets (see phpsniff rulesets)")
	cmd.Flags().StringSliceVarP(&f.excludes, "exclude", "e", nil, "Glob of paths to skip (repeatable)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Echo fixer output")
	cmd.Flags().BoolVar(&f.changed, "changed", false, "Only scan files changed in the git worktree")
	cmd.Flags().BoolVar(&f.record, "record", false, "Append the run to .phpsniff/history/runs.json")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output the run as JSON")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Only print failures and the summary")
	cmd.Flags().BoolVar(&f.ci, "ci", false, "CI mode: exit 1 if any error is reported")
	cmd.Flags().IntVar(&f.concurrency, "fix-concurrency", 0, "Maximum concurrent fix processes (0 uses config, unbounded by default)")
	cmd.Flags().StringVar(&f.timeout, "fix-timeout", "", "Kill a fix process after this long (e.g. 45s)")
}

func (f *runFlags) request(paths []string, fix bool, debugOut io.Writer) (application.ScanRequest, error) {
	project, err := filepath.Abs(f.project)
	if err != nil {
		return application.ScanRequest{}, fmt.Errorf("resolving path: %w", err)
	}

	overrides := domain.ProjectConfig{
		Ruleset:        domain.Ruleset(f.ruleset),
		Exclude:        f.excludes,
		Debug:          f.debug,
		FixConcurrency: f.concurrency,
	}
	if f.timeout != "" {
		if err := overrides.FixTimeout.UnmarshalText([]byte(f.timeout)); err != nil {
			return application.ScanRequest{}, fmt.Errorf("--fix-timeout: %w", err)
		}
	}

	return application.ScanRequest{
		ProjectPath: project,
		ConfigFile:  f.configFile,
		Paths:       paths,
		Overrides:   overrides,
		Fix:         fix,
		ChangedOnly: f.changed,
		Record:      f.record,
		DebugOut:    debugOut,
	}, nil
}

func newScanCmd(d deps) *cobra.Command {
	var (
		flags runFlags
		fix   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Check PHP files against the WordPress coding standards",
		Long:  "Scan each path (a directory is searched recursively for .php files) with phpcs and report every error and warning.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, d, &flags, args, fix)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&fix, "fix", false, "Run phpcbf on every file with fixable violations after the scan")

	return cmd
}

func runSession(cmd *cobra.Command, d deps, flags *runFlags, paths []string, fix bool) error {
	debugOut := cmd.OutOrStdout()
	if flags.jsonOutput {
		debugOut = cmd.ErrOrStderr()
	}
	req, err := flags.request(paths, fix, debugOut)
	if err != nil {
		return err
	}
	if req.ChangedOnly && !gitinfo.New().IsGitRepo(req.ProjectPath) {
		return fmt.Errorf("--changed needs a git repository, %s is not inside one", req.ProjectPath)
	}

	bus := events.NewBus()
	printer := tui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags.quiet || flags.jsonOutput)
	printer.Attach(bus)

	outcome, err := d.scanService().Run(cmd.Context(), req, bus)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if flags.jsonOutput {
		if err := renderJSON(cmd, outcome); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderSummary(outcome.Config.Ruleset, outcome.Totals, pendingFixes(outcome)))
		if outcome.Fix != nil {
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFixResult(*outcome.Fix))
		}
	}

	if flags.ci && outcome.Totals.Errors > 0 {
		return fmt.Errorf("%d coding standard errors found", outcome.Totals.Errors)
	}
	return nil
}

// pendingFixes lists fixable files only when no fix pass ran.
func pendingFixes(outcome *application.ScanOutcome) []string {
	if outcome.Fix != nil {
		return nil
	}
	return outcome.FixableFiles
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
