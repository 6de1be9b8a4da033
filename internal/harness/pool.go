package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/store"
)

// DefaultWorkers is the number of units run at once when unset.
const DefaultWorkers = 2

// Pool runs units on a bounded set of goroutines.
type Pool struct {
	Runner  *Runner
	Workers int
	IDs     RunIDs

	// OnResult, if set, is called once per finished unit. Calls are
	// serialized but arrive in completion order.
	OnResult func(Result)

	Logger *slog.Logger
}

// NewPool creates a pool running at most workers units at once.
func NewPool(runner *Runner, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		Runner:  runner,
		Workers: workers,
		IDs:     NewRunID,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run executes every unit and returns their results in unit order.
//
// Unit failures are reported in the results. The returned error is non-nil
// only when the run itself could not proceed: the run row could not be
// stored, or ctx was canceled (remaining units are then marked Skipped).
func (p *Pool) Run(ctx context.Context, units []materialize.Unit) (*Report, error) {
	ids := p.IDs
	if ids == nil {
		ids = NewRunID
	}
	return p.RunWithID(ctx, ids(), units)
}

// RunWithID is Run with a caller-chosen run id.
func (p *Pool) RunWithID(ctx context.Context, runID string, units []materialize.Unit) (*Report, error) {
	report := &Report{RunID: runID, Results: make([]Result, len(units))}
	log := p.logger().With("run_id", report.RunID)

	if s := p.Runner.Store; s != nil {
		run := store.Run{
			ID:          report.RunID,
			StartedAt:   p.Runner.clock(),
			Environment: environmentOf(units),
			Browsers:    browsersOf(units),
		}
		if err := s.BeginRun(ctx, run); err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
	}

	log.Info("run started", "units", len(units), "workers", p.workers())

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.workers())

	for i, u := range units {
		if ctx.Err() != nil {
			report.Results[i] = Result{Unit: u, Skipped: true, Err: ctx.Err()}
			continue
		}
		i, u := i, u
		g.Go(func() error {
			var res Result
			if ctx.Err() != nil {
				res = Result{Unit: u, Skipped: true, Err: ctx.Err()}
			} else {
				res = p.Runner.RunUnit(ctx, report.RunID, u)
			}
			mu.Lock()
			report.Results[i] = res
			if p.OnResult != nil {
				p.OnResult(res)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.Summary = record.Summarize(report.Records())
	log.Info("run finished",
		"total", report.Summary.Total,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run %s interrupted: %w", report.RunID, err)
	}
	return report, nil
}

func (p *Pool) workers() int {
	if p.Workers <= 0 {
		return DefaultWorkers
	}
	return p.Workers
}

func (p *Pool) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func environmentOf(units []materialize.Unit) string {
	if len(units) == 0 {
		return ""
	}
	return units[0].Env.Name
}

func browsersOf(units []materialize.Unit) []string {
	seen := map[string]bool{}
	var browsers []string
	for _, u := range units {
		if !seen[u.Env.Browser] {
			seen[u.Env.Browser] = true
			browsers = append(browsers, u.Env.Browser)
		}
	}
	return browsers
}
