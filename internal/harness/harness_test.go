package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casegrid/internal/catalog"
	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/param"
	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/step"
	"github.com/roach88/casegrid/internal/store"
	"github.com/roach88/casegrid/internal/testutil"
)

const searchSteps = "Navigate to homepage|Enter search term in search box|Verify search results are displayed"

type memorySink struct {
	mu      sync.Mutex
	records []record.Record
}

func (m *memorySink) Append(_ context.Context, r record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func testUnit(t *testing.T, caseID, stepText, value, browser string) materialize.Unit {
	t.Helper()
	steps, err := step.Parse(stepText, step.Strict)
	require.NoError(t, err)
	return materialize.Unit{
		Case:  catalog.TestCase{ID: caseID, Name: "Search " + caseID, StepText: stepText},
		Value: param.Scalar(value),
		Env:   materialize.Environment{Browser: browser, Name: "staging"},
		Steps: steps,
	}
}

func appFactory(app *testutil.FakeApp) SessionFactory {
	return func(context.Context, materialize.Environment) (Session, error) {
		return app, nil
	}
}

func newTestRunner(factory SessionFactory, sink record.Sink) (*Runner, *testutil.DeterministicClock) {
	clock := testutil.NewDeterministicClock()
	rec := record.NewRecorder(record.Defaults{}, []record.Sink{sink}, record.WithClock(clock.Now))
	r := NewRunner(factory, step.NewInterpreter(time.Second, nil), rec).WithClock(clock.Now)
	return r, clock
}

func TestRunUnit_Pass(t *testing.T) {
	app := &testutil.FakeApp{ResultsDisplayed: true, Results: 3}
	sink := &memorySink{}
	r, _ := newTestRunner(appFactory(app), sink)

	res := r.RunUnit(context.Background(), "run-1", testUnit(t, "TC001", searchSteps, "dress", "chromium"))
	require.NoError(t, res.Err)
	assert.True(t, res.Passed())

	assert.Equal(t, record.StatusPass, res.Record.Status)
	assert.Equal(t, "EXEC_1741944600000_TC001", res.Record.ExecutionID)
	assert.Equal(t, "chromium", res.Record.Browser)
	assert.Equal(t, "staging", res.Record.Environment)
	assert.Equal(t, "Successfully executed on chromium with data: dress", res.Record.Notes)
	assert.Empty(t, res.Record.ScreenshotPath)
	assert.Equal(t, []string{"dress"}, app.Searched())
	assert.True(t, app.Closed())

	require.Len(t, sink.records, 1)
	assert.Equal(t, res.Record, sink.records[0])
}

func TestRunUnit_FailureCapturesScreenshot(t *testing.T) {
	dir := t.TempDir()
	app := &testutil.FakeApp{ResultsDisplayed: false, ScreenshotDir: dir}
	sink := &memorySink{}
	r, _ := newTestRunner(appFactory(app), sink)

	res := r.RunUnit(context.Background(), "run-1", testUnit(t, "TC001", searchSteps, "dress", "chromium"))
	require.Error(t, res.Err)
	assert.True(t, step.IsAssertionFailure(res.Err))
	assert.False(t, res.Passed())

	rec := res.Record
	assert.Equal(t, record.StatusFail, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "search results displayed")
	assert.Equal(t, "Failed on chromium with data: dress", rec.Notes)

	name := ScreenshotName("EXEC_1741944600000_TC001", "chromium", testutil.Epoch.Add(time.Second))
	assert.Equal(t, filepath.Join(dir, name+".png"), rec.ScreenshotPath)
	_, err := os.Stat(rec.ScreenshotPath)
	assert.NoError(t, err)
	assert.True(t, app.Closed())
}

func TestRunUnit_ScreenshotFailureStillRecords(t *testing.T) {
	app := &testutil.FakeApp{
		ResultsDisplayed: false,
		Errors:           map[string]error{"screenshot": errors.New("page crashed")},
	}
	sink := &memorySink{}
	r, _ := newTestRunner(appFactory(app), sink)

	res := r.RunUnit(context.Background(), "run-1", testUnit(t, "TC001", searchSteps, "dress", "chromium"))
	assert.True(t, step.IsAssertionFailure(res.Err))
	assert.Equal(t, record.StatusFail, res.Record.Status)
	assert.Empty(t, res.Record.ScreenshotPath)
	assert.Len(t, sink.records, 1)
}

func TestRunUnit_SessionError(t *testing.T) {
	factory := func(context.Context, materialize.Environment) (Session, error) {
		return nil, errors.New("browser not installed")
	}
	sink := &memorySink{}
	r, _ := newTestRunner(factory, sink)

	res := r.RunUnit(context.Background(), "run-1", testUnit(t, "TC001", searchSteps, "dress", "webkit"))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "open session for staging/webkit")
	assert.Equal(t, record.StatusFail, res.Record.Status)
	assert.Contains(t, res.Record.ErrorMessage, "browser not installed")
	assert.Len(t, sink.records, 1)
}

func TestRunUnit_UnitTimeout(t *testing.T) {
	app := &testutil.FakeApp{Block: map[string]bool{"search": true}, ScreenshotDir: t.TempDir()}
	sink := &memorySink{}
	r, _ := newTestRunner(appFactory(app), sink)
	r.UnitTimeout = 50 * time.Millisecond

	res := r.RunUnit(context.Background(), "run-1", testUnit(t, "TC001", searchSteps, "dress", "chromium"))
	require.Error(t, res.Err)
	assert.True(t, step.IsTimeout(res.Err))
	assert.Equal(t, record.StatusFail, res.Record.Status)
	// The screenshot still runs on its own deadline.
	assert.NotEmpty(t, res.Record.ScreenshotPath)
}

func TestScreenshotName(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 5, 123_000_000, time.UTC)
	assert.Equal(t,
		"failure-EXEC_1_TC001-chromium-2025-03-14T09-30-05.123Z",
		ScreenshotName("EXEC_1_TC001", "chromium", at),
	)
	assert.Equal(t,
		"failure-EXEC_1-ms_edge-2025-03-14T09-30-05.123Z",
		ScreenshotName("EXEC_1", "ms edge", at),
	)
}

// trackingFactory hands out fresh fake apps and records peak concurrency.
type trackingFactory struct {
	configure func(env materialize.Environment, app *testutil.FakeApp)
	active    atomic.Int32
	peak      atomic.Int32
	opened    atomic.Int32
}

type trackedSession struct {
	*testutil.FakeApp
	f *trackingFactory
}

func (s trackedSession) Close() error {
	s.f.active.Add(-1)
	return s.FakeApp.Close()
}

func (f *trackingFactory) open(_ context.Context, env materialize.Environment) (Session, error) {
	n := f.active.Add(1)
	f.opened.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	// Give other workers a chance to overlap.
	time.Sleep(5 * time.Millisecond)
	app := &testutil.FakeApp{ResultsDisplayed: true, Results: 1}
	if f.configure != nil {
		f.configure(env, app)
	}
	return trackedSession{FakeApp: app, f: f}, nil
}

func TestPool_BoundedAndOrdered(t *testing.T) {
	f := &trackingFactory{
		configure: func(env materialize.Environment, app *testutil.FakeApp) {
			if env.Browser == "firefox" {
				app.ResultsDisplayed = false
			}
		},
	}
	sink := &memorySink{}
	r, _ := newTestRunner(f.open, sink)

	var units []materialize.Unit
	for i := 0; i < 6; i++ {
		browser := "chromium"
		if i%3 == 2 {
			browser = "firefox"
		}
		units = append(units, testUnit(t, fmt.Sprintf("TC%03d", i), searchSteps, "dress", browser))
	}

	var seen atomic.Int32
	p := NewPool(r, 2)
	p.IDs = FixedRunIDs("run-1")
	p.OnResult = func(Result) { seen.Add(1) }

	report, err := p.Run(context.Background(), units)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
	assert.Equal(t, int32(6), f.opened.Load())
	assert.Equal(t, int32(0), f.active.Load())
	assert.Equal(t, int32(6), seen.Load())

	require.Len(t, report.Results, 6)
	for i, res := range report.Results {
		assert.Equal(t, units[i].ID(), res.Unit.ID())
		assert.Equal(t, units[i].Env.Browser != "firefox", res.Passed(), "unit %d", i)
	}

	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, record.Summary{Total: 6, Passed: 4, Failed: 2, PassRate: "66.67%"}, report.Summary)
	assert.Len(t, sink.records, 6)
}

func TestPool_MirrorsToStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &trackingFactory{}
	sink := &memorySink{}
	r, _ := newTestRunner(f.open, sink)
	r.Store = s
	r.Recorder = record.NewRecorder(record.Defaults{}, []record.Sink{sink, store.RunSink{Store: s, RunID: "run-1"}})

	units := []materialize.Unit{
		testUnit(t, "TC001", searchSteps, "dress", "chromium"),
		testUnit(t, "TC002", searchSteps, "shirt", "chromium"),
	}
	p := NewPool(r, 2)
	p.IDs = FixedRunIDs("run-1")

	report, err := p.Run(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Failed())

	ctx := context.Background()
	ids, err := s.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	recs, err := s.ReadExecutions(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	events, err := s.ReadStepEvents(ctx, report.Results[0].Record.ExecutionID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "navigate", events[0].Kind)
	assert.Equal(t, "search", events[1].Kind)
	assert.Equal(t, "verify_results", events[2].Kind)
	for _, ev := range events {
		assert.Equal(t, "passed", ev.Outcome)
		assert.Equal(t, "run-1", ev.RunID)
	}
}

func TestPool_CanceledBeforeStart(t *testing.T) {
	f := &trackingFactory{}
	sink := &memorySink{}
	r, _ := newTestRunner(f.open, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPool(r, 2)
	p.IDs = FixedRunIDs("run-1")
	report, err := p.Run(ctx, []materialize.Unit{testUnit(t, "TC001", searchSteps, "dress", "chromium")})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Skipped)
	assert.Equal(t, int32(0), f.opened.Load())
	assert.Empty(t, sink.records)
	assert.Equal(t, "0%", report.Summary.PassRate)
}

func TestFixedRunIDs_Exhausted(t *testing.T) {
	ids := FixedRunIDs("a", "b")
	assert.Equal(t, "a", ids())
	assert.Equal(t, "b", ids())
	assert.PanicsWithValue(t, "harness: only 2 run id(s) were provided", func() { ids() })
}

func TestNewRunID_Sortable(t *testing.T) {
	a := NewRunID()
	time.Sleep(2 * time.Millisecond)
	b := NewRunID()
	assert.Len(t, a, 36)
	assert.Less(t, a, b)
}
