package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity is the classification the analysis tool gives a message.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// RunConfig is the immutable configuration of one orchestration session.
type RunConfig struct {
	Roots    []string `json:"roots"`
	Ruleset  Ruleset  `json:"ruleset"`
	Excludes []string `json:"excludes,omitempty"`
	Debug    bool     `json:"debug,omitempty"`
	Tools    Tools    `json:"tools"`

	ScanDelay      time.Duration `json:"scan_delay"`
	FixTimeout     time.Duration `json:"fix_timeout"`
	FixConcurrency int           `json:"fix_concurrency"`
}

// Totals accumulates counts over a scan. Only meaningful once the scan is done.
type Totals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Fixables int `json:"fixables"`
	Files    int `json:"files"`
}

// Message is one diagnostic from the analysis tool.
type Message struct {
	Message  string   `json:"message"`
	Source   string   `json:"source"`
	Severity int      `json:"severity"`
	Type     Severity `json:"type"`
	Fixable  bool     `json:"fixable"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`

	// Extra holds fields the tool reported beyond the ones above. They are
	// written back out unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

var messageFields = map[string]bool{
	"message": true, "source": true, "severity": true, "type": true,
	"fixable": true, "line": true, "column": true,
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if messageFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}
	*m = Message(p)
	m.Extra = raw
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	data, err := json.Marshal(plain(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}

	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(known)+len(m.Extra))
	for k, v := range m.Extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

// Report is the JSON document the analysis tool prints with --report-json.
type Report struct {
	Totals ReportTotals          `json:"totals"`
	Files  map[string]FileReport `json:"files"`
}

type ReportTotals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Fixable  int `json:"fixable"`
}

type FileReport struct {
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Messages []Message `json:"messages"`
}

// ParseReport decodes analysis output. Anything that is not a JSON object
// with a files section is rejected with ErrMalformedOutput.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	if r.Files == nil {
		return nil, fmt.Errorf("%w: missing files section", ErrMalformedOutput)
	}
	return &r, nil
}

// FixableSet is an insertion-ordered set of file paths.
type FixableSet struct {
	order []string
	seen  map[string]struct{}
}

// Add appends path unless it is already present. It reports whether path was added.
func (s *FixableSet) Add(path string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[path]; ok {
		return false
	}
	s.seen[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

func (s *FixableSet) Contains(path string) bool {
	_, ok := s.seen[path]
	return ok
}

func (s *FixableSet) Len() int { return len(s.order) }

// Files returns a copy of the set in insertion order.
func (s *FixableSet) Files() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// RunEntry is one recorded scan in the run history.
type RunEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	Commit       string    `json:"commit,omitempty"`
	Ruleset      Ruleset   `json:"ruleset"`
	Roots        []string  `json:"roots"`
	Totals       Totals    `json:"totals"`
	FixableFiles []string  `json:"fixable_files,omitempty"`
}
