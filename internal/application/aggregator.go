package application

import (
	"sort"

	"github.com/phpsniff/phpsniff/internal/domain"
	"github.com/phpsniff/phpsniff/internal/events"
)

// Aggregator folds analysis reports into running totals and the fixable set.
// It is owned by the scan worker and is not safe for concurrent use; read it
// only after the scan queue is done.
type Aggregator struct {
	bus     *events.Bus
	totals  domain.Totals
	fixable domain.FixableSet
}

func NewAggregator(bus *events.Bus) *Aggregator {
	return &Aggregator{bus: bus}
}

// Fold adds one analysis report to the totals and records its messages.
func (a *Aggregator) Fold(r *domain.Report) {
	a.totals.Errors += r.Totals.Errors
	a.totals.Warnings += r.Totals.Warnings
	a.totals.Fixables += r.Totals.Fixable

	files := make([]string, 0, len(r.Files))
	for f := range r.Files {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		a.totals.Files++
		if msgs := r.Files[f].Messages; len(msgs) > 0 {
			a.RecordMessages(f, msgs)
		}
	}
}

// RecordMessages marks the file fixable when any message is, and publishes
// ERROR and WARNING messages. Other types are dropped.
func (a *Aggregator) RecordMessages(file string, msgs []domain.Message) {
	for _, m := range msgs {
		if m.Fixable {
			a.fixable.Add(file)
		}

		switch m.Type {
		case domain.SeverityError, domain.SeverityWarning:
			a.bus.Publish(events.Diagnostic{File: file, Message: m})
		}
	}
}

func (a *Aggregator) Totals() domain.Totals { return a.totals }

func (a *Aggregator) FixableFiles() []string { return a.fixable.Files() }
