package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// QueueState is the lifecycle of a scan queue.
type QueueState string

const (
	StateIdle     QueueState = "idle"
	StateRunning  QueueState = "running"
	StateDraining QueueState = "draining"
	StateDone     QueueState = "done"
	StateFailed   QueueState = "failed"
)

var errQueueStarted = errors.New("scan queue already started")

// ScanQueue analyzes files strictly one at a time in push order. Producers
// push batches with Push and signal the end of input with Close; Run drains
// the queue and returns the accumulated totals.
type ScanQueue struct {
	runner  domain.ProcessRunner
	tools   domain.Tools
	ruleset domain.Ruleset
	delay   time.Duration
	agg     *Aggregator
	bus     *events.Bus

	mu      sync.Mutex
	pending []string
	closed  bool
	state   QueueState
	notify  chan struct{}
}

func NewScanQueue(runner domain.ProcessRunner, cfg domain.RunConfig, agg *Aggregator, bus *events.Bus) *ScanQueue {
	return &ScanQueue{
		runner:  runner,
		tools:   cfg.Tools,
		ruleset: cfg.Ruleset,
		delay:   cfg.ScanDelay,
		agg:     agg,
		bus:     bus,
		state:   StateIdle,
		notify:  make(chan struct{}, 1),
	}
}

// Push appends files to the queue. Files pushed after Close are dropped.
func (q *ScanQueue) Push(files ...string) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		slog.Warn("scan queue closed, dropping files", "count", len(files))
		return
	}
	q.pending = append(q.pending, files...)
	q.mu.Unlock()
	q.wake()
}

// Close marks the end of input. The queue finishes once what is pending has been scanned.
func (q *ScanQueue) Close() {
	q.mu.Lock()
	q.closed = true
	if q.state == StateRunning {
		q.state = StateDraining
	}
	q.mu.Unlock()
	q.wake()
}

func (q *ScanQueue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Run processes the queue until it is closed and empty, then publishes Done.
// Per-file faults are reported on the failure channel and never stop the
// queue; only context cancellation does.
func (q *ScanQueue) Run(ctx context.Context) (domain.Totals, error) {
	q.mu.Lock()
	if q.state != StateIdle {
		q.mu.Unlock()
		return domain.Totals{}, errQueueStarted
	}
	q.state = StateRunning
	if q.closed {
		q.state = StateDraining
	}
	q.mu.Unlock()

	q.bus.Publish(events.Start{})

	for {
		file, ok, err := q.next(ctx)
		if err != nil {
			q.setState(StateFailed)
			q.bus.Fail(fmt.Errorf("scan aborted: %w", err))
			return q.agg.Totals(), err
		}
		if !ok {
			break
		}

		q.scanFile(ctx, file)

		if err := q.throttle(ctx); err != nil {
			q.setState(StateFailed)
			q.bus.Fail(fmt.Errorf("scan aborted: %w", err))
			return q.agg.Totals(), err
		}
	}

	q.setState(StateDone)
	totals := q.agg.Totals()
	slog.Debug("scan drained", "files", totals.Files, "errors", totals.Errors, "warnings", totals.Warnings)
	q.bus.Publish(events.Done{Totals: totals})
	return totals, nil
}

func (q *ScanQueue) next(ctx context.Context) (string, bool, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			file := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return file, true, nil
		}
		if q.closed {
			q.mu.Unlock()
			return "", false, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-q.notify:
		}
	}
}

// throttle waits between files so process spawning stays paced. It is
// skipped once nothing more can arrive.
func (q *ScanQueue) throttle(ctx context.Context) error {
	if q.delay <= 0 {
		return ctx.Err()
	}
	q.mu.Lock()
	finished := q.closed && len(q.pending) == 0
	q.mu.Unlock()
	if finished {
		return nil
	}

	t := time.NewTimer(q.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (q *ScanQueue) scanFile(ctx context.Context, file string) {
	q.bus.Publish(events.Scan{File: file})

	cmd := q.tools.AnalyzeCommand(q.ruleset, file)
	var stdout bytes.Buffer
	stderr := &stderrBuffer{}

	start := time.Now()
	proc, err := q.runner.Start(ctx, cmd, &stdout, stderr)
	if err != nil {
		q.bus.Fail(&domain.FileError{File: file, Err: fmt.Errorf("%w: %w", domain.ErrProcessStart, err)})
		return
	}

	// The analysis tool exits non-zero whenever it finds something; the
	// report on stdout is what matters.
	waitErr := proc.Wait()
	slog.Debug("analysis finished", "file", file, "duration", time.Since(start), "exit", waitErr)

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		q.bus.Fail(&domain.FileError{File: file, Err: fmt.Errorf("%w: %s", domain.ErrProcessStderr, msg)})
	}

	report, err := domain.ParseReport(stdout.Bytes())
	if err != nil {
		q.bus.Fail(&domain.FileError{File: file, Err: err})
		return
	}
	q.agg.Fold(report)
}

func (q *ScanQueue) setState(s QueueState) {
	q.mu.Lock()
	q.state = s
	q.mu.Unlock()
}

func (q *ScanQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
