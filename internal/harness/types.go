package harness

import (
	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/record"
)

// Result is the outcome of one unit.
type Result struct {
	Unit   materialize.Unit
	Record record.Record

	// Err is the step, session or recording failure, if any.
	Err error

	// Skipped is set when the run was canceled before the unit started.
	Skipped bool
}

// Passed reports whether the unit executed and was recorded as PASS.
func (r Result) Passed() bool {
	return !r.Skipped && r.Err == nil && r.Record.Status == record.StatusPass
}

// Report is the outcome of a whole run.
type Report struct {
	RunID   string
	Results []Result
	Summary record.Summary
}

// Failed counts units that did not pass, skipped units included.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

// Records returns the execution records of units that ran.
func (r *Report) Records() []record.Record {
	recs := make([]record.Record, 0, len(r.Results))
	for _, res := range r.Results {
		if !res.Skipped {
			recs = append(recs, res.Record)
		}
	}
	return recs
}
