package step

import (
	"context"
	"errors"
	"fmt"
)

// AssertionError reports a post-condition that did not hold.
type AssertionError struct {
	Step     Step
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("STEP_ASSERTION_FAILED: step %q: expected %s, got %s", e.Step.Text, e.Expected, e.Actual)
}

// ActionError reports an application action or query that could not complete.
type ActionError struct {
	Step   Step
	Action string

	// Timeout is set when the action's deadline expired.
	Timeout bool

	Err error
}

func (e *ActionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("ACTION_UNAVAILABLE: step %q: %s timed out: %v", e.Step.Text, e.Action, e.Err)
	}
	return fmt.Sprintf("ACTION_UNAVAILABLE: step %q: %s: %v", e.Step.Text, e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func newActionError(s Step, action string, err error) *ActionError {
	return &ActionError{
		Step:    s,
		Action:  action,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

// IsAssertionFailure reports whether err is an *AssertionError.
func IsAssertionFailure(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// IsActionUnavailable reports whether err is an *ActionError.
func IsActionUnavailable(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}

// IsTimeout reports whether err is an *ActionError caused by an expired deadline.
func IsTimeout(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Timeout
	}
	return false
}
