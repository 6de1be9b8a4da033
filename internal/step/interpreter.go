package step

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/casegrid/internal/param"
)

// DefaultNoResultsMessage is asserted by VerifyErrorMessage when the
// parameter set does not configure an expected message.
const DefaultNoResultsMessage = "No results were found for your search"

// DefaultActionTimeout bounds each action or query when none is configured.
const DefaultActionTimeout = 10 * time.Second

// Outcome is the result of one executed step.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// StepEvent describes one executed step for observers.
type StepEvent struct {
	Index    int
	Step     Step
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// Interpreter executes compiled steps. It holds no per-unit state and may be
// shared across concurrently running units.
type Interpreter struct {
	// ActionTimeout bounds every individual action and query.
	ActionTimeout time.Duration

	// NavigationTimeout, if set, bounds the open action instead of
	// ActionTimeout.
	NavigationTimeout time.Duration

	// RequireResultCount makes VerifyResults also assert a positive count.
	RequireResultCount bool

	// Observer, if set, is called after every step.
	Observer func(StepEvent)

	Logger *slog.Logger

	now func() time.Time
}

// NewInterpreter creates an interpreter with the given per-action timeout.
func NewInterpreter(actionTimeout time.Duration, logger *slog.Logger) *Interpreter {
	if actionTimeout <= 0 {
		actionTimeout = DefaultActionTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Interpreter{ActionTimeout: actionTimeout, Logger: logger, now: time.Now}
}

// Execute runs steps in order against app. It stops at the first failure
// and returns it; later steps do not run.
func (in *Interpreter) Execute(ctx context.Context, steps []Step, value param.Value, expectedMessage string, app AppActions) error {
	if value == nil {
		value = param.Scalar("")
	}
	for i, s := range steps {
		start := in.clock()
		outcome := OutcomePassed
		var err error
		if cerr := ctx.Err(); cerr != nil {
			// The unit context ended between steps.
			err = newActionError(s, "start", cerr)
		} else {
			err = in.executeStep(ctx, s, value, expectedMessage, app)
		}
		switch {
		case err != nil:
			outcome = OutcomeFailed
		case s.Kind == Unrecognized:
			outcome = OutcomeSkipped
		}

		in.logger().Debug("step executed",
			"index", i+1,
			"step", s.Text,
			"kind", s.Kind.String(),
			"outcome", string(outcome),
		)
		if in.Observer != nil {
			in.Observer(StepEvent{
				Index:    i + 1,
				Step:     s,
				Outcome:  outcome,
				Err:      err,
				Duration: in.clock().Sub(start),
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) executeStep(ctx context.Context, s Step, value param.Value, expected string, app AppActions) error {
	switch s.Kind {
	case Navigate:
		return in.do(ctx, s, "open", app.Open)

	case Search:
		return in.do(ctx, s, "search", func(ctx context.Context) error {
			return app.Search(ctx, value.String())
		})

	case VerifyResults:
		displayed, err := query(ctx, in, s, "is_results_displayed", app.IsResultsDisplayed)
		if err != nil {
			return err
		}
		if !displayed {
			return &AssertionError{Step: s, Expected: "search results displayed", Actual: "no results displayed"}
		}
		if in.RequireResultCount {
			return in.assertPositiveCount(ctx, s, "result_count", app.ResultCount)
		}
		return nil

	case CountResults:
		return in.assertPositiveCount(ctx, s, "result_count", app.ResultCount)

	case SelectResult:
		// The selection happens as part of the following add-to-cart step.
		return nil

	case AddToCart:
		if err := in.do(ctx, s, "add_random_result_to_cart", app.AddRandomResultToCart); err != nil {
			return err
		}
		confirmed, err := query(ctx, in, s, "is_cart_confirmed", app.IsCartConfirmed)
		if err != nil {
			return err
		}
		if !confirmed {
			return &AssertionError{Step: s, Expected: "cart confirmation shown", Actual: "no confirmation"}
		}
		return in.assertPositiveCount(ctx, s, "cart_count", app.CartCount)

	case VerifySpecialChars:
		hasResults, err := query(ctx, in, s, "is_results_displayed", app.IsResultsDisplayed)
		if err != nil {
			return err
		}
		noResults, err := query(ctx, in, s, "is_no_results_shown", app.IsNoResultsShown)
		if err != nil {
			return err
		}
		if !hasResults && !noResults {
			return &AssertionError{
				Step:     s,
				Expected: "search results or a no-results indicator",
				Actual:   "neither displayed",
			}
		}
		if noResults && expected != "" {
			return in.assertMessageContains(ctx, s, app, expected)
		}
		return nil

	case VerifyErrorMessage:
		want := expected
		if want == "" {
			want = DefaultNoResultsMessage
		}
		return in.assertMessageContains(ctx, s, app, want, value.String())

	case Unrecognized:
		return nil

	default:
		return fmt.Errorf("step %q: unsupported intent %s", s.Text, s.Kind)
	}
}

func (in *Interpreter) assertPositiveCount(ctx context.Context, s Step, action string, fn func(context.Context) (int, error)) error {
	n, err := query(ctx, in, s, action, fn)
	if err != nil {
		return err
	}
	if n <= 0 {
		return &AssertionError{Step: s, Expected: action + " > 0", Actual: fmt.Sprintf("%d", n)}
	}
	return nil
}

// assertMessageContains fetches the validation message once and checks
// every fragment against it.
func (in *Interpreter) assertMessageContains(ctx context.Context, s Step, app AppActions, fragments ...string) error {
	msg, err := query(ctx, in, s, "validation_message", app.ValidationMessage)
	if err != nil {
		return err
	}
	for _, f := range fragments {
		if !strings.Contains(msg, f) {
			return &AssertionError{
				Step:     s,
				Expected: fmt.Sprintf("validation message containing %q", f),
				Actual:   fmt.Sprintf("%q", msg),
			}
		}
	}
	return nil
}

func (in *Interpreter) do(ctx context.Context, s Step, action string, fn func(context.Context) error) error {
	_, err := query(ctx, in, s, action, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// query runs fn under the interpreter's per-action timeout.
func query[T any](ctx context.Context, in *Interpreter, s Step, action string, fn func(context.Context) (T, error)) (T, error) {
	timeout := in.ActionTimeout
	if action == "open" && in.NavigationTimeout > 0 {
		timeout = in.NavigationTimeout
	}
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(actx)
	if err != nil {
		var zero T
		ae := newActionError(s, action, err)
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			ae.Timeout = true
		}
		return zero, ae
	}
	return v, nil
}

func (in *Interpreter) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return in.Logger
}

func (in *Interpreter) clock() time.Time {
	if in.now == nil {
		return time.Now()
	}
	return in.now()
}
