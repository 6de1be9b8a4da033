package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/step"
)

// Run describes one harness run.
type Run struct {
	ID          string
	StartedAt   time.Time
	Environment string
	Browsers    []string
}

// StepEvent is a persisted step outcome.
type StepEvent struct {
	RunID       string
	ExecutionID string
	Index       int
	Text        string
	Kind        string
	Outcome     string
	Error       string
	Duration    time.Duration
}

// NewStepEvent converts an interpreter event for persistence.
func NewStepEvent(runID, executionID string, ev step.StepEvent) StepEvent {
	se := StepEvent{
		RunID:       runID,
		ExecutionID: executionID,
		Index:       ev.Index,
		Text:        ev.Step.Text,
		Kind:        ev.Step.Kind.String(),
		Outcome:     string(ev.Outcome),
		Duration:    ev.Duration,
	}
	if ev.Err != nil {
		se.Error = ev.Err.Error()
	}
	return se
}

// BeginRun inserts a run row. Re-inserting the same id is a no-op.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, environment, browsers)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Environment,
		strings.Join(run.Browsers, ","),
	)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

// AppendExecution inserts one execution record tagged with runID.
// Duplicate execution ids are rejected.
func (s *Store) AppendExecution(ctx context.Context, runID string, r record.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
		(execution_id, run_id, test_case_id, browser, environment, executed_by,
		 execution_date, start_time, end_time, status, error_message,
		 screenshot_path, video_path, duration_seconds, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ExecutionID,
		runID,
		r.TestCaseID,
		r.Browser,
		r.Environment,
		r.ExecutedBy,
		r.Date,
		r.StartTime,
		r.EndTime,
		string(record.NormalizeStatus(r.Status)),
		r.ErrorMessage,
		r.ScreenshotPath,
		r.VideoPath,
		r.DurationSeconds,
		r.Notes,
	)
	if err != nil {
		return fmt.Errorf("append execution %s: %w", r.ExecutionID, err)
	}
	return nil
}

// AppendStepEvent inserts one step event. A repeated (execution, index)
// pair is ignored.
func (s *Store) AppendStepEvent(ctx context.Context, ev StepEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO step_events
		(run_id, execution_id, step_index, step_text, kind, outcome, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id, step_index) DO NOTHING
	`,
		ev.RunID,
		ev.ExecutionID,
		ev.Index,
		ev.Text,
		ev.Kind,
		ev.Outcome,
		ev.Error,
		ev.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("append step event %s#%d: %w", ev.ExecutionID, ev.Index, err)
	}
	return nil
}

// ReadExecutions returns the records of runID in insertion order.
// An empty runID returns every record.
func (s *Store) ReadExecutions(ctx context.Context, runID string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT execution_id, test_case_id, browser, environment, executed_by,
		       execution_date, start_time, end_time, status, error_message,
		       screenshot_path, video_path, duration_seconds, notes
		FROM executions
		WHERE ? = '' OR run_id = ?
		ORDER BY seq ASC
	`, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("read executions: %w", err)
	}
	defer rows.Close()

	records := []record.Record{}
	for rows.Next() {
		var r record.Record
		var status string
		if err := rows.Scan(
			&r.ExecutionID,
			&r.TestCaseID,
			&r.Browser,
			&r.Environment,
			&r.ExecutedBy,
			&r.Date,
			&r.StartTime,
			&r.EndTime,
			&status,
			&r.ErrorMessage,
			&r.ScreenshotPath,
			&r.VideoPath,
			&r.DurationSeconds,
			&r.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		r.Status = record.Status(status)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read executions: %w", err)
	}
	return records, nil
}

// ReadStepEvents returns the step events of one execution ordered by index.
func (s *Store) ReadStepEvents(ctx context.Context, executionID string) ([]StepEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, execution_id, step_index, step_text, kind, outcome, error, duration_ms
		FROM step_events
		WHERE execution_id = ?
		ORDER BY step_index ASC
	`, executionID)
	if err != nil {
		return nil, fmt.Errorf("read step events: %w", err)
	}
	defer rows.Close()

	events := []StepEvent{}
	for rows.Next() {
		var ev StepEvent
		var ms int64
		if err := rows.Scan(&ev.RunID, &ev.ExecutionID, &ev.Index, &ev.Text, &ev.Kind, &ev.Outcome, &ev.Error, &ms); err != nil {
			return nil, fmt.Errorf("scan step event: %w", err)
		}
		ev.Duration = time.Duration(ms) * time.Millisecond
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read step events: %w", err)
	}
	return events, nil
}

// RunIDs lists run ids in start order.
func (s *Store) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RunSink adapts the store to record.Sink for one run.
type RunSink struct {
	Store *Store
	RunID string
}

// Append implements record.Sink.
func (rs RunSink) Append(ctx context.Context, r record.Record) error {
	return rs.Store.AppendExecution(ctx, rs.RunID, r)
}

var _ record.Sink = RunSink{}
