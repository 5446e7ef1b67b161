package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

var errSessionStarted = errors.New("session already ran")

// Session orchestrates one scan, and optionally one fix pass, over a fixed
// configuration: bootstrap gate, discovery per root, serialized scan, fix.
type Session struct {
	cfg        domain.RunConfig
	installer  domain.Installer
	discoverer domain.Discoverer
	runner     domain.ProcessRunner
	bus        *events.Bus
	debugOut   io.Writer
	changes    domain.ChangeDetector

	gate sync.Once

	mu      sync.Mutex
	gateErr error
	agg     *Aggregator
	scan    *ScanQueue
	fixed   bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebugOutput sets where fixer stdout is echoed when the run is in debug mode.
func WithDebugOutput(w io.Writer) SessionOption {
	return func(s *Session) { s.debugOut = w }
}

// WithChangedOnly restricts discovery to files the detector reports as changed.
func WithChangedOnly(d domain.ChangeDetector) SessionOption {
	return func(s *Session) { s.changes = d }
}

// NewSession creates a session. bus must not be nil; pass events.Discard()
// when nobody listens.
func NewSession(
	cfg domain.RunConfig,
	installer domain.Installer,
	discoverer domain.Discoverer,
	runner domain.ProcessRunner,
	bus *events.Bus,
	opts ...SessionOption,
) *Session {
	s := &Session{
		cfg:        cfg,
		installer:  installer,
		discoverer: discoverer,
		runner:     runner,
		bus:        bus,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agg = NewAggregator(bus)
	return s
}

func (s *Session) Config() domain.RunConfig { return s.cfg }

func (s *Session) SessionID() string { return s.bus.SessionID() }

// State reports the scan lifecycle. A failed bootstrap reports StateFailed.
func (s *Session) State() QueueState {
	s.mu.Lock()
	scan, gateErr := s.scan, s.gateErr
	s.mu.Unlock()

	if gateErr != nil {
		return StateFailed
	}
	if scan == nil {
		return StateIdle
	}
	return scan.State()
}

// Begin ensures the analysis tool is available, installing it if needed.
// It runs once; later calls return the first result.
func (s *Session) Begin(ctx context.Context) error {
	s.gate.Do(func() {
		err := s.bootstrap(ctx)
		s.mu.Lock()
		s.gateErr = err
		s.mu.Unlock()
		if err != nil {
			s.bus.Fail(err)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateErr
}

func (s *Session) bootstrap(ctx context.Context) error {
	installed, err := s.installer.Installed(ctx)
	if err != nil {
		return fmt.Errorf("%w: checking installation: %w", domain.ErrToolUnavailable, err)
	}
	if installed {
		return nil
	}

	slog.Info("analysis tool not found, installing")
	if err := s.installer.Install(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrToolUnavailable, err)
	}
	return nil
}

// Run passes the bootstrap gate, discovers every root and scans the result.
// A root that fails discovery is reported and skipped; the returned error
// then joins those precondition failures while totals cover the other roots.
func (s *Session) Run(ctx context.Context) (domain.Totals, error) {
	if err := s.Begin(ctx); err != nil {
		return domain.Totals{}, err
	}

	s.mu.Lock()
	if s.scan != nil {
		s.mu.Unlock()
		return domain.Totals{}, errSessionStarted
	}
	queue := NewScanQueue(s.runner, s.cfg, s.agg, s.bus)
	s.scan = queue
	s.mu.Unlock()

	var preconditions []error
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		defer queue.Close()

		for _, root := range s.cfg.Roots {
			files, err := s.discover(root)
			if err != nil {
				s.bus.Fail(err)
				preconditions = append(preconditions, err)
				continue
			}
			slog.Debug("discovered files", "root", root, "count", len(files))
			queue.Push(files...)
		}
	}()

	totals, err := queue.Run(ctx)
	<-produced
	if err != nil {
		return totals, err
	}
	return totals, errors.Join(preconditions...)
}

func (s *Session) discover(root string) ([]string, error) {
	files, err := s.discoverer.Discover(root, s.cfg.Excludes)
	if err != nil || s.changes == nil {
		return files, err
	}

	changed, err := s.changes.ChangedFiles(root)
	if err != nil {
		return nil, fmt.Errorf("listing changed files under %s: %w", root, err)
	}
	set := make(map[string]bool, len(changed))
	for _, c := range changed {
		set[c] = true
	}

	kept := files[:0]
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err == nil && set[abs] {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// Fix runs the fix pass over the files found fixable. It requires a drained scan.
func (s *Session) Fix(ctx context.Context) (domain.FixResult, error) {
	if s.State() != StateDone {
		return domain.FixResult{}, domain.ErrScanNotDone
	}

	s.mu.Lock()
	if s.fixed {
		s.mu.Unlock()
		return domain.FixResult{}, errSessionStarted
	}
	s.fixed = true
	s.mu.Unlock()

	q := NewFixQueue(s.runner, s.cfg, s.bus, s.debugOut)
	return q.Fix(ctx, s.agg.FixableFiles()), nil
}

// Totals returns the scan totals. Only meaningful once State is StateDone.
func (s *Session) Totals() domain.Totals { return s.agg.Totals() }

// FixableFiles returns the deduplicated fixable files in discovery order.
func (s *Session) FixableFiles() []string { return s.agg.FixableFiles() }
