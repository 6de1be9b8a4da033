package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/step"
	"github.com/roach88/casegrid/internal/store"
)

// DefaultUnitTimeout bounds a whole unit when Runner.UnitTimeout is unset.
const DefaultUnitTimeout = 2 * time.Minute

// screenshotTimeLayout is an ISO-8601 timestamp safe for file names.
const screenshotTimeLayout = "2006-01-02T15-04-05.000Z"

// Runner executes single units inside the unit boundary.
// A Runner is safe for concurrent use once configured.
type Runner struct {
	Factory     SessionFactory
	Interpreter *step.Interpreter
	Recorder    *record.Recorder

	// Store, if set, receives one step event per executed step.
	Store *store.Store

	UnitTimeout time.Duration
	Logger      *slog.Logger

	now func() time.Time
}

// NewRunner creates a runner with default timeouts and a discard logger.
func NewRunner(factory SessionFactory, interp *step.Interpreter, rec *record.Recorder) *Runner {
	return &Runner{
		Factory:     factory,
		Interpreter: interp,
		Recorder:    rec,
		UnitTimeout: DefaultUnitTimeout,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
}

// WithClock replaces the runner's wall clock. Used by tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// RunUnit executes one unit and records its outcome. Step and session
// failures are returned in the Result, never as panics or early exits.
func (r *Runner) RunUnit(ctx context.Context, runID string, u materialize.Unit) Result {
	log := r.logger().With("unit", u.Name(), "case", u.Case.ID, "browser", u.Env.Browser)

	start := r.clock()
	execID := r.Recorder.NewExecutionID(u.Case.ID, start)

	timeout := r.UnitTimeout
	if timeout <= 0 {
		timeout = DefaultUnitTimeout
	}
	uctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug("unit started", "execution_id", execID)

	in := record.Input{
		ExecutionID: execID,
		TestCaseID:  u.Case.ID,
		Browser:     u.Env.Browser,
		Environment: u.Env.Name,
		Start:       start,
	}

	runErr := r.execute(uctx, ctx, runID, execID, u, &in, log)

	in.End = r.clock()
	if runErr != nil {
		in.Status = record.StatusFail
		in.ErrorMessage = runErr.Error()
		in.Notes = fmt.Sprintf("Failed on %s with data: %s", u.Env.Browser, u.Value)
	} else {
		in.Status = record.StatusPass
		in.Notes = fmt.Sprintf("Successfully executed on %s with data: %s", u.Env.Browser, u.Value)
	}

	rec, recErr := r.Recorder.Record(context.WithoutCancel(ctx), in)
	if recErr != nil {
		log.Error("recording failed", "execution_id", execID, "error", recErr)
	}

	log.Info("unit finished", "status", string(rec.Status), "duration", rec.DurationSeconds)
	return Result{Unit: u, Record: rec, Err: errors.Join(runErr, recErr)}
}

// execute opens the session, runs the steps and captures a failure
// screenshot. The screenshot path is written into in.
func (r *Runner) execute(uctx, parent context.Context, runID, execID string, u materialize.Unit, in *record.Input, log *slog.Logger) error {
	sess, err := r.Factory(uctx, u.Env)
	if err != nil {
		return fmt.Errorf("open session for %s: %w", u.Env, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("session close failed", "error", cerr)
		}
	}()

	interp := *r.Interpreter
	interp.Logger = log
	if r.Store != nil {
		interp.Observer = func(ev step.StepEvent) {
			se := store.NewStepEvent(runID, execID, ev)
			if serr := r.Store.AppendStepEvent(context.WithoutCancel(parent), se); serr != nil {
				log.Warn("step event not stored", "step", ev.Index, "error", serr)
			}
		}
	}

	err = interp.Execute(uctx, u.Steps, u.Value, u.ExpectedMessage, sess)
	if err == nil {
		return nil
	}

	log.Warn("unit failed", "error", err)
	in.ScreenshotPath = r.captureFailure(parent, sess, execID, u.Env.Browser, log)
	return err
}

// captureFailure takes the failure screenshot with a fresh deadline, since
// the unit context may already be expired. Errors are logged and yield an
// empty path.
func (r *Runner) captureFailure(parent context.Context, sess Session, execID, browser string, log *slog.Logger) string {
	timeout := r.Interpreter.ActionTimeout
	if timeout <= 0 {
		timeout = step.DefaultActionTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	name := ScreenshotName(execID, browser, r.clock())
	path, err := sess.Screenshot(ctx, name)
	if err != nil {
		log.Warn("failure screenshot not captured", "error", err)
		return ""
	}
	return path
}

// ScreenshotName returns "failure-<execID>-<browser>-<timestamp>".
func ScreenshotName(execID, browser string, at time.Time) string {
	ts := at.UTC().Format(screenshotTimeLayout)
	return fmt.Sprintf("failure-%s-%s-%s", execID, sanitize(browser), ts)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}
