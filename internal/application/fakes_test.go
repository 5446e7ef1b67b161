package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

var errKilled = errors.New("signal: killed")

// behavior scripts one fake process, keyed by the file argument.
type behavior struct {
	stdout   string
	stderr   string
	startErr error
	hang     bool          // never exits until killed
	release  chan struct{} // exits once closed
}

type fakeRunner struct {
	mu         sync.Mutex
	behaviors  map[string]behavior
	started    []domain.Command
	running    int
	maxRunning int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{behaviors: make(map[string]behavior)}
}

func (r *fakeRunner) on(file string, b behavior) *fakeRunner {
	r.behaviors[file] = b
	return r
}

func (r *fakeRunner) Start(_ context.Context, cmd domain.Command, stdout, stderr io.Writer) (domain.Process, error) {
	file := cmd.Args[len(cmd.Args)-1]

	r.mu.Lock()
	b, ok := r.behaviors[file]
	if !ok {
		b = behavior{stdout: reportJSON(file)}
	}
	r.started = append(r.started, cmd)
	if b.startErr != nil {
		r.mu.Unlock()
		return nil, b.startErr
	}
	r.running++
	if r.running > r.maxRunning {
		r.maxRunning = r.running
	}
	r.mu.Unlock()

	return &fakeProcess{runner: r, b: b, stdout: stdout, stderr: stderr, killed: make(chan struct{})}, nil
}

func (r *fakeRunner) exited() {
	r.mu.Lock()
	r.running--
	r.mu.Unlock()
}

func (r *fakeRunner) Started() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Command{}, r.started...)
}

func (r *fakeRunner) StartedFiles() []string {
	var files []string
	for _, c := range r.Started() {
		files = append(files, c.Args[len(c.Args)-1])
	}
	return files
}

func (r *fakeRunner) MaxRunning() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxRunning
}

type fakeProcess struct {
	runner *fakeRunner
	b      behavior
	stdout io.Writer
	stderr io.Writer
	killed chan struct{}
	once   sync.Once
}

func (p *fakeProcess) Wait() error {
	defer p.runner.exited()

	if p.b.stderr != "" {
		_, _ = io.WriteString(p.stderr, p.b.stderr)
	}
	if p.b.hang {
		<-p.killed
		return errKilled
	}
	if p.b.release != nil {
		select {
		case <-p.b.release:
		case <-p.killed:
			return errKilled
		}
	}
	_, _ = io.WriteString(p.stdout, p.b.stdout)
	return nil
}

func (p *fakeProcess) Kill() error {
	p.once.Do(func() { close(p.killed) })
	return nil
}

// reportJSON renders an analysis report for one file with computed totals.
func reportJSON(file string, msgs ...domain.Message) string {
	r := domain.Report{Files: map[string]domain.FileReport{file: {Messages: msgs}}}
	if msgs == nil {
		r.Files[file] = domain.FileReport{Messages: []domain.Message{}}
	}
	for _, m := range msgs {
		switch m.Type {
		case domain.SeverityError:
			r.Totals.Errors++
		case domain.SeverityWarning:
			r.Totals.Warnings++
		}
		if m.Fixable {
			r.Totals.Fixable++
		}
	}
	data, err := json.Marshal(r)
	if err != nil {
		panic(fmt.Sprintf("marshaling report: %v", err))
	}
	return string(data)
}

func errorMsg(text string, fixable bool) domain.Message {
	return domain.Message{Message: text, Type: domain.SeverityError, Fixable: fixable, Line: 1, Column: 1, Source: "Test.Sniff.Error"}
}

func warningMsg(text string, fixable bool) domain.Message {
	return domain.Message{Message: text, Type: domain.SeverityWarning, Fixable: fixable, Line: 2, Column: 1, Source: "Test.Sniff.Warning"}
}

// recorder captures everything published on a bus.
type recorder struct {
	mu       sync.Mutex
	events   []events.Event
	failures []error
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	bus.Subscribe(func(e events.Envelope) {
		r.mu.Lock()
		r.events = append(r.events, e.Event)
		r.mu.Unlock()
	})
	bus.OnFailure(func(f events.Failure) {
		r.mu.Lock()
		r.failures = append(r.failures, f.Err)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

func (r *recorder) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error{}, r.failures...)
}

func (r *recorder) Last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type fakeDiscoverer struct {
	roots map[string][]string
	errs  map[string]error
}

func (d *fakeDiscoverer) Discover(root string, _ []string) ([]string, error) {
	if err := d.errs[root]; err != nil {
		return nil, err
	}
	if files, ok := d.roots[root]; ok {
		return append([]string{}, files...), nil
	}
	return nil, &domain.FileError{File: root, Err: domain.ErrPathNotFound}
}

type fakeInstaller struct {
	installed  bool
	checkErr   error
	installErr error
	installs   int
}

func (i *fakeInstaller) Installed(context.Context) (bool, error) {
	return i.installed, i.checkErr
}

func (i *fakeInstaller) Install(context.Context) error {
	i.installs++
	if i.installErr != nil {
		return i.installErr
	}
	i.installed = true
	return nil
}

func testRunConfig(roots ...string) domain.RunConfig {
	cfg := domain.DefaultConfig().Merge(domain.ProjectConfig{
		ScanDelay:  domain.NewDuration(0),
		FixTimeout: domain.NewDuration(time.Second),
	})
	return cfg.RunConfig(roots)
}

func withTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
