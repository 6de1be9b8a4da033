package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Default field values used when neither the input nor Defaults set them.
const (
	DefaultBrowser     = "chromium"
	DefaultEnvironment = "staging"
	DefaultExecutor    = "Automated Test"
)

// Defaults are the run-level values applied to unset input fields.
type Defaults struct {
	Browser     string
	Environment string
	ExecutedBy  string
}

// Sink is an append-only destination for records.
type Sink interface {
	Append(ctx context.Context, r Record) error
}

// Recorder completes inputs and appends them to its sinks.
type Recorder struct {
	mu       sync.Mutex
	sinks    []Sink
	defaults Defaults
	stamper  Stamper
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the wall clock used for defaults.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the recorder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder creates a recorder appending to sinks in order.
func NewRecorder(defaults Defaults, sinks []Sink, opts ...Option) *Recorder {
	if defaults.Browser == "" {
		defaults.Browser = DefaultBrowser
	}
	if defaults.Environment == "" {
		defaults.Environment = DefaultEnvironment
	}
	if defaults.ExecutedBy == "" {
		defaults.ExecutedBy = DefaultExecutor
	}
	r := &Recorder{
		sinks:    sinks,
		defaults: defaults,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record fills defaults, then appends the record to every sink while
// holding the recorder's lock. Sink errors are joined; a failing sink does
// not prevent the others from receiving the record.
func (r *Recorder) Record(ctx context.Context, in Input) (Record, error) {
	rec := r.Complete(in)

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range r.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return rec, fmt.Errorf("record %s: %w", rec.ExecutionID, err)
	}

	r.logger.Debug("execution recorded",
		"execution_id", rec.ExecutionID,
		"case", rec.TestCaseID,
		"status", string(rec.Status),
	)
	return rec, nil
}

// Complete applies defaults to in without appending anything.
func (r *Recorder) Complete(in Input) Record {
	now := r.now()
	start := in.Start
	if start.IsZero() {
		start = now
	}

	id := in.ExecutionID
	if id == "" {
		id = r.NewExecutionID(in.TestCaseID, now)
	}

	rec := Record{
		ExecutionID:     id,
		TestCaseID:      in.TestCaseID,
		Browser:         firstNonEmpty(in.Browser, r.defaults.Browser),
		Environment:     firstNonEmpty(in.Environment, r.defaults.Environment),
		ExecutedBy:      firstNonEmpty(in.ExecutedBy, r.defaults.ExecutedBy),
		Date:            start.Format(DateLayout),
		StartTime:       start.Format(TimeLayout),
		Status:          NormalizeStatus(in.Status),
		ErrorMessage:    in.ErrorMessage,
		ScreenshotPath:  in.ScreenshotPath,
		VideoPath:       in.VideoPath,
		DurationSeconds: "0",
		Notes:           in.Notes,
	}
	if !in.End.IsZero() {
		rec.EndTime = in.End.Format(TimeLayout)
		rec.DurationSeconds = DurationSeconds(in.End.Sub(start))
	}
	return rec
}

// NewExecutionID returns "EXEC_<stamp>_<caseID>" with a monotonic stamp.
func (r *Recorder) NewExecutionID(caseID string, now time.Time) string {
	stamp := r.stamper.Next(now)
	if caseID == "" {
		return fmt.Sprintf("EXEC_%d", stamp)
	}
	return fmt.Sprintf("EXEC_%d_%s", stamp, caseID)
}

// DurationSeconds renders d as whole seconds, rounded. Negative durations
// render as "0".
func DurationSeconds(d time.Duration) string {
	if d < 0 {
		return "0"
	}
	return fmt.Sprintf("%d", int64(math.Round(d.Seconds())))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
