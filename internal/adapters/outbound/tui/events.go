package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// RenderEvent renders one progress event as a terminal line. Events with
// nothing to show render as the empty string.
func RenderEvent(e events.Event) string {
	switch ev := e.(type) {
	case events.Start:
		return "  " + titleStyle.Render("Scanning") + "\n"
	case events.Scan:
		return fmt.Sprintf("  %s %s\n", faintStyle.Render("○"), fileStyle.Render(shortenPath(ev.File)))
	case events.Diagnostic:
		return renderDiagnostic(ev)
	case events.Done:
		return fmt.Sprintf("  %s %s\n", passStyle.Render("✓"), dimStyle.Render(fmt.Sprintf("scanned %s", plural(ev.Totals.Files, "file"))))
	case events.FixStart:
		return "  " + titleStyle.Render("Fixing") + "\n"
	case events.Fixing:
		return fmt.Sprintf("  %s %s\n", infoTagStyle.Render("○"), fileStyle.Render(shortenPath(ev.File)))
	case events.Fixed:
		return fmt.Sprintf("  %s %s\n", passStyle.Render("✓"), dimStyle.Render(fmt.Sprintf("fix pass over %s resolved", plural(len(ev.Files), "file"))))
	default:
		return ""
	}
}

func renderDiagnostic(d events.Diagnostic) string {
	m := d.Message
	pos := dimStyle.Render(fmt.Sprintf("%d:%d", m.Line, m.Column))
	line := fmt.Sprintf("      %s %s %s", severityTag(m.Type), pos, m.Message)
	if m.Fixable {
		line += " " + infoTagStyle.Render("[fixable]")
	}
	if m.Source != "" {
		line += "  " + faintStyle.Render(m.Source)
	}
	return line + "\n"
}

// RenderFailure renders one failure-channel error.
func RenderFailure(err error) string {
	tag := errorTagStyle.Render("fail ")
	if domain.IsPrecondition(err) {
		tag = warnTagStyle.Render("skip ")
	}
	return fmt.Sprintf("  %s %s\n", tag, strings.TrimSpace(err.Error()))
}

// Printer writes rendered events and failures to an io.Writer. It is safe
// for use from concurrent publishers.
type Printer struct {
	mu       sync.Mutex
	out      io.Writer
	failures io.Writer
	quiet    bool
}

// NewPrinter creates a printer. Progress goes to out and failures to
// failures. A quiet printer only prints failures.
func NewPrinter(out, failures io.Writer, quiet bool) *Printer {
	return &Printer{out: out, failures: failures, quiet: quiet}
}

// Attach subscribes the printer to bus and returns the subscription IDs.
func (p *Printer) Attach(bus *events.Bus) []string {
	return []string{
		bus.Subscribe(p.HandleEvent),
		bus.OnFailure(p.HandleFailure),
	}
}

func (p *Printer) HandleEvent(env events.Envelope) {
	if p.quiet {
		return
	}
	line := RenderEvent(env.Event)
	if line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, line)
}

func (p *Printer) HandleFailure(f events.Failure) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.failures, RenderFailure(f.Err))
}
