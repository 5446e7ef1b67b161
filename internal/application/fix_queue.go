package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// FixQueue runs the auto-fixer over a set of files. Fix processes run
// concurrently up to the configured limit, each bound by its own watchdog.
type FixQueue struct {
	runner      domain.ProcessRunner
	tools       domain.Tools
	ruleset     domain.Ruleset
	timeout     time.Duration
	concurrency int
	debugOut    io.Writer
	bus         *events.Bus
}

// NewFixQueue creates a fix queue. When cfg.Debug is set and debugOut is
// non-nil, fixer stdout is echoed to debugOut; otherwise it is discarded.
func NewFixQueue(runner domain.ProcessRunner, cfg domain.RunConfig, bus *events.Bus, debugOut io.Writer) *FixQueue {
	q := &FixQueue{
		runner:      runner,
		tools:       cfg.Tools,
		ruleset:     cfg.Ruleset,
		timeout:     cfg.FixTimeout,
		concurrency: cfg.FixConcurrency,
		bus:         bus,
	}
	if q.timeout <= 0 {
		q.timeout = domain.DefaultFixTimeout
	}
	if cfg.Debug && debugOut != nil {
		q.debugOut = &syncWriter{w: debugOut}
	}
	return q
}

// Fix attempts every file and publishes Fixed once all attempts resolved,
// whatever their outcome. An empty set publishes Fixed immediately.
func (q *FixQueue) Fix(ctx context.Context, files []string) domain.FixResult {
	q.bus.Publish(events.FixStart{})

	result := domain.FixResult{
		Files:    append([]string{}, files...),
		Outcomes: make(map[string]domain.FixOutcome, len(files)),
	}
	if len(files) == 0 {
		q.bus.Publish(events.Fixed{Files: result.Files})
		return result
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if q.concurrency > 0 {
		g.SetLimit(q.concurrency)
	}

	for _, file := range result.Files {
		g.Go(func() error {
			outcome := q.fixFile(ctx, file)
			mu.Lock()
			result.Outcomes[file] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("fix pass finished",
		"files", len(result.Files),
		"completed", result.Count(domain.FixCompleted),
		"killed", result.Count(domain.FixKilled),
		"errored", result.Count(domain.FixErrored),
	)
	q.bus.Publish(events.Fixed{Files: result.Files})
	return result
}

func (q *FixQueue) fixFile(ctx context.Context, file string) domain.FixOutcome {
	q.bus.Publish(events.Fixing{File: file})

	var stdout io.Writer = io.Discard
	if q.debugOut != nil {
		stdout = q.debugOut
	}

	wd := newWatchdog()
	stderr := &stderrBuffer{onFirstWrite: func() { wd.Disarm() }}

	proc, err := q.runner.Start(ctx, q.tools.FixCommand(q.ruleset, file), stdout, stderr)
	if err != nil {
		q.bus.Fail(&domain.FileError{File: file, Err: fmt.Errorf("%w: %w", domain.ErrProcessStart, err)})
		return domain.FixErrored
	}

	wd.Arm(q.timeout, func() {
		slog.Warn("fix process exceeded timeout, killing", "file", file, "timeout", q.timeout)
		q.bus.Fail(&domain.FileError{
			File: file,
			Err:  fmt.Errorf("%w: engine is too busy to fix %s, please fix it manually", domain.ErrStuckProcess, file),
		})
		if err := proc.Kill(); err != nil {
			slog.Debug("kill failed", "file", file, "error", err)
		}
	})

	waitErr := proc.Wait()
	if wd.Disarm() {
		return domain.FixKilled
	}
	slog.Debug("fix finished", "file", file, "exit", waitErr)

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		q.bus.Fail(&domain.FileError{File: file, Err: fmt.Errorf("%w: %s", domain.ErrProcessStderr, msg)})
		return domain.FixErrored
	}
	return domain.FixCompleted
}
