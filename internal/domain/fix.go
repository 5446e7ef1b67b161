package domain

// FixOutcome records how a single fix attempt ended.
type FixOutcome string

const (
	FixCompleted FixOutcome = "completed"
	FixErrored   FixOutcome = "errored"
	FixKilled    FixOutcome = "killed"
)

// FixResult is the fix pass as attempted. Files keeps the fixable set's order.
type FixResult struct {
	Files    []string              `json:"files"`
	Outcomes map[string]FixOutcome `json:"outcomes,omitempty"`
}

// Count returns how many files ended with the given outcome.
func (r FixResult) Count(o FixOutcome) int {
	n := 0
	for _, got := range r.Outcomes {
		if got == o {
			n++
		}
	}
	return n
}
