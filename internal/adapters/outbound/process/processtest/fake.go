// Package processtest provides a stand-in for phpcs and phpcbf that needs
// no PHP installation.
//
// The fake analyzer reads the target file and reports one ERROR for every
// line containing "BAD" and one fixable WARNING for every line containing
// "UGLY". The fake fixer rewrites "UGLY" to "FIXED" in place, and hangs
// until killed on files containing "STUCK".
package processtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/phpsniff/phpsniff/internal/domain"
)

const installedStandards = "The installed coding standards are PEAR, PSR1, PSR2, PSR12, Squiz, Zend, WordPress, WordPress-Core, WordPress-Docs and WordPress-Extra\n"

// Runner implements domain.ProcessRunner with in-process fakes.
type Runner struct {
	// Standards is printed for the installed-standards query. Empty means
	// the WordPress standards are installed.
	Standards string

	mu      sync.Mutex
	started []domain.Command
}

func NewRunner() *Runner {
	return &Runner{}
}

// Started returns every command started so far.
func (r *Runner) Started() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.started)
}

// Fixed returns the files the fake fixer was started on.
func (r *Runner) Fixed() []string {
	var files []string
	for _, c := range r.Started() {
		if !slices.Contains(c.Args, "--report-json") && !slices.Contains(c.Args, "-i") && len(c.Args) > 0 {
			files = append(files, c.Args[len(c.Args)-1])
		}
	}
	return files
}

func (r *Runner) Start(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) (domain.Process, error) {
	r.mu.Lock()
	r.started = append(r.started, cmd)
	r.mu.Unlock()

	p := &process{done: make(chan struct{}), killed: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.err = r.run(ctx, cmd, stdout, stderr, p.killed)
	}()
	return p, nil
}

func (r *Runner) run(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer, killed <-chan struct{}) error {
	switch {
	case slices.Contains(cmd.Args, "-i"):
		standards := r.Standards
		if standards == "" {
			standards = installedStandards
		}
		_, err := io.WriteString(stdout, standards)
		return err
	case slices.Contains(cmd.Args, "--report-json"):
		return analyze(cmd.Args[len(cmd.Args)-1], stdout, stderr)
	case len(cmd.Args) > 0:
		return fix(ctx, cmd.Args[len(cmd.Args)-1], stderr, killed)
	default:
		return nil
	}
}

func analyze(file string, stdout, stderr io.Writer) error {
	data, err := os.ReadFile(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return err
	}

	report := domain.Report{Files: map[string]domain.FileReport{}}
	fr := domain.FileReport{Messages: []domain.Message{}}
	for i, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, "BAD") {
			fr.Errors++
			report.Totals.Errors++
			fr.Messages = append(fr.Messages, domain.Message{
				Message: "BAD is not allowed", Source: "Fake.Sniff.Bad", Severity: 5,
				Type: domain.SeverityError, Line: i + 1, Column: strings.Index(line, "BAD") + 1,
			})
		}
		if strings.Contains(line, "UGLY") {
			fr.Warnings++
			report.Totals.Warnings++
			report.Totals.Fixable++
			fr.Messages = append(fr.Messages, domain.Message{
				Message: "UGLY should be FIXED", Source: "Fake.Sniff.Ugly", Severity: 5,
				Type: domain.SeverityWarning, Fixable: true, Line: i + 1, Column: strings.Index(line, "UGLY") + 1,
			})
		}
	}
	report.Files[file] = fr

	return json.NewEncoder(stdout).Encode(report)
}

func fix(ctx context.Context, file string, stderr io.Writer, killed <-chan struct{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return err
	}
	if bytes.Contains(data, []byte("STUCK")) {
		select {
		case <-killed:
			return fmt.Errorf("signal: killed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return os.WriteFile(file, bytes.ReplaceAll(data, []byte("UGLY"), []byte("FIXED")), 0o644)
}

type process struct {
	done   chan struct{}
	killed chan struct{}
	once   sync.Once
	err    error
}

func (p *process) Wait() error {
	<-p.done
	return p.err
}

func (p *process) Kill() error {
	p.once.Do(func() { close(p.killed) })
	return nil
}
