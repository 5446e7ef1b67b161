package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// InstallerFactory builds the bootstrap installer for a resolved config.
type InstallerFactory func(cfg domain.ProjectConfig) domain.Installer

// ScanRequest describes one scan through the ScanService.
type ScanRequest struct {
	// ProjectPath is where configuration and run history live.
	ProjectPath string
	// ConfigFile overrides the config lookup in ProjectPath when set.
	ConfigFile string
	// Paths are the roots to scan. Empty means ProjectPath.
	Paths []string
	// Overrides are applied on top of the loaded config.
	Overrides domain.ProjectConfig

	Fix         bool
	ChangedOnly bool
	Record      bool
	DebugOut    io.Writer
}

// FileDiagnostics groups the reported messages of one file.
type FileDiagnostics struct {
	File     string           `json:"file"`
	Messages []domain.Message `json:"messages"`
}

// ScanOutcome is everything a scan produced.
type ScanOutcome struct {
	SessionID    string            `json:"session_id"`
	Config       domain.RunConfig  `json:"config"`
	Totals       domain.Totals     `json:"totals"`
	FixableFiles []string          `json:"fixable_files"`
	Diagnostics  []FileDiagnostics `json:"diagnostics,omitempty"`
	Failures     []string          `json:"failures,omitempty"`
	Fix          *domain.FixResult `json:"fix,omitempty"`
	Skipped      error             `json:"-"`
}

// ScanService orchestrates a full run:
// load config → bootstrap → discover → scan → optional fix → optional record.
type ScanService struct {
	configLoader domain.ConfigLoader
	discoverer   domain.Discoverer
	runner       domain.ProcessRunner
	installers   InstallerFactory
	changes      domain.ChangeDetector
	commits      domain.CommitReader
	history      domain.RunHistory
}

func NewScanService(
	configLoader domain.ConfigLoader,
	discoverer domain.Discoverer,
	runner domain.ProcessRunner,
	installers InstallerFactory,
	changes domain.ChangeDetector,
	commits domain.CommitReader,
	history domain.RunHistory,
) *ScanService {
	return &ScanService{
		configLoader: configLoader,
		discoverer:   discoverer,
		runner:       runner,
		installers:   installers,
		changes:      changes,
		commits:      commits,
		history:      history,
	}
}

// LoadConfig resolves the project config for req, overrides included.
func (s *ScanService) LoadConfig(req ScanRequest) (domain.ProjectConfig, error) {
	var (
		cfg domain.ProjectConfig
		err error
	)
	if req.ConfigFile != "" {
		cfg, err = s.configLoader.LoadFile(req.ConfigFile)
	} else {
		cfg, err = s.configLoader.Load(req.ProjectPath)
	}
	if err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("loading config: %w", err)
	}

	cfg = cfg.Merge(req.Overrides)
	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Run executes one session on bus. Roots that fail discovery are reported in
// Skipped and do not fail the run unless every root failed. A failed
// bootstrap or a cancelled context fails it too.
func (s *ScanService) Run(ctx context.Context, req ScanRequest, bus *events.Bus) (*ScanOutcome, error) {
	cfg, err := s.LoadConfig(req)
	if err != nil {
		return nil, err
	}

	paths := req.Paths
	if len(paths) == 0 {
		paths = []string{req.ProjectPath}
	}
	rc := cfg.RunConfig(paths)

	outcome := &ScanOutcome{SessionID: bus.SessionID(), Config: rc}
	collect := newCollector(bus)
	defer collect.detach()

	opts := []SessionOption{WithDebugOutput(req.DebugOut)}
	if req.ChangedOnly && s.changes != nil {
		opts = append(opts, WithChangedOnly(s.changes))
	}
	session := NewSession(rc, s.installers(cfg), s.discoverer, s.runner, bus, opts...)

	totals, err := session.Run(ctx)
	if err != nil && !domain.IsPrecondition(err) {
		outcome.Failures = collect.failures()
		return outcome, err
	}
	outcome.Skipped = err
	outcome.Totals = totals
	if err != nil && skippedRoots(err) >= len(rc.Roots) {
		outcome.Failures = collect.failures()
		return outcome, fmt.Errorf("%w: %w", domain.ErrNoRootScanned, err)
	}
	outcome.FixableFiles = session.FixableFiles()

	if req.Fix {
		result, err := session.Fix(ctx)
		if err != nil {
			return outcome, fmt.Errorf("fixing: %w", err)
		}
		outcome.Fix = &result
	}

	outcome.Diagnostics = collect.diagnostics()
	outcome.Failures = collect.failures()

	if req.Record {
		if err := s.record(req.ProjectPath, outcome); err != nil {
			// History is best-effort; the scan itself succeeded.
			slog.Warn("recording run history failed", "error", err)
		}
	}
	return outcome, nil
}

// skippedRoots counts the roots behind a joined precondition error.
func skippedRoots(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

// History returns the recorded runs of a project.
func (s *ScanService) History(projectPath string) ([]domain.RunEntry, error) {
	if s.history == nil {
		return nil, errors.New("run history not configured")
	}
	return s.history.Load(projectPath)
}

func (s *ScanService) record(projectPath string, outcome *ScanOutcome) error {
	if s.history == nil {
		return nil
	}
	entry := domain.RunEntry{
		Timestamp:    time.Now().UTC(),
		SessionID:    outcome.SessionID,
		Ruleset:      outcome.Config.Ruleset,
		Roots:        outcome.Config.Roots,
		Totals:       outcome.Totals,
		FixableFiles: outcome.FixableFiles,
	}
	if s.commits != nil {
		if hash, err := s.commits.CommitHash(projectPath); err == nil {
			entry.Commit = hash
		}
	}
	return s.history.Save(projectPath, entry)
}

// collector gathers diagnostics and failures published during a run.
type collector struct {
	bus *events.Bus
	ids []string

	mu    sync.Mutex
	order []string
	diags map[string][]domain.Message
	fails []string
}

func newCollector(bus *events.Bus) *collector {
	c := &collector{bus: bus, diags: make(map[string][]domain.Message)}
	c.ids = append(c.ids,
		bus.Subscribe(c.onDiagnostic, events.KindError, events.KindWarning),
		bus.OnFailure(c.onFailure),
	)
	return c
}

func (c *collector) onDiagnostic(env events.Envelope) {
	d, ok := env.Event.(events.Diagnostic)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.diags[d.File]; !seen {
		c.order = append(c.order, d.File)
	}
	c.diags[d.File] = append(c.diags[d.File], d.Message)
}

func (c *collector) onFailure(f events.Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fails = append(c.fails, f.Err.Error())
}

func (c *collector) diagnostics() []FileDiagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FileDiagnostics, 0, len(c.order))
	for _, f := range c.order {
		out = append(out, FileDiagnostics{File: f, Messages: c.diags[f]})
	}
	return out
}

func (c *collector) failures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.fails...)
}

func (c *collector) detach() {
	for _, id := range c.ids {
		c.bus.Unsubscribe(id)
	}
}
