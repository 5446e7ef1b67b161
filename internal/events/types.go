// Package events carries session progress to callers as typed events.
//
// Two channels exist. Progress events (Start, Scan, Diagnostic, Done, FixStart,
// Fixing, Fixed) describe the session's lifecycle. Failures describe process
// and infrastructure faults; they never stop a session by themselves.
package events

import (
	"time"

	"github.com/phpsniff/phpsniff/internal/domain"
)

// Kind identifies the variant of an Event.
type Kind string

const (
	KindStart    Kind = "start"
	KindScan     Kind = "scan"
	KindError    Kind = "error"
	KindWarning  Kind = "warning"
	KindDone     Kind = "done"
	KindFixStart Kind = "fix"
	KindFixing   Kind = "fixing"
	KindFixed    Kind = "fixed"
)

// Event is one progress notification. Use a type switch on the concrete
// variants below.
type Event interface {
	Kind() Kind
}

// Start is emitted when the scan queue begins running.
type Start struct{}

// Scan is emitted right before the analysis process for File is spawned.
type Scan struct {
	File string
}

// Diagnostic carries one ERROR or WARNING message for a file.
type Diagnostic struct {
	File    string
	Message domain.Message
}

// Done is emitted once the scan queue drained.
type Done struct {
	Totals domain.Totals
}

// FixStart is emitted when a fix pass begins.
type FixStart struct{}

// Fixing is emitted right before the fix process for File is spawned.
type Fixing struct {
	File string
}

// Fixed is emitted when every fix attempt resolved.
type Fixed struct {
	Files []string
}

func (Start) Kind() Kind    { return KindStart }
func (Scan) Kind() Kind     { return KindScan }
func (Done) Kind() Kind     { return KindDone }
func (FixStart) Kind() Kind { return KindFixStart }
func (Fixing) Kind() Kind   { return KindFixing }
func (Fixed) Kind() Kind    { return KindFixed }

// Kind maps the message severity onto the error or warning channel.
func (d Diagnostic) Kind() Kind {
	if d.Message.Type == domain.SeverityError {
		return KindError
	}
	return KindWarning
}

// Envelope wraps an event with its delivery metadata.
type Envelope struct {
	ID        string
	SessionID string
	Timestamp time.Time
	Event     Event
}

// Failure is a process-level or infrastructure fault.
type Failure struct {
	ID        string
	SessionID string
	Timestamp time.Time
	Err       error
}
