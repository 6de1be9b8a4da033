package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/casegrid/internal/browser"
	"github.com/roach88/casegrid/internal/config"
	"github.com/roach88/casegrid/internal/harness"
	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/step"
	"github.com/roach88/casegrid/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	catalogFlags

	Workers   int
	Results   string
	Database  string
	RemoteURL string

	// Sessions overrides the browser-backed session factory (for testing).
	Sessions harness.SessionFactory

	// RunIDs overrides UUIDv7 run ids (for testing).
	RunIDs harness.RunIDs
}

// UnitResult is one unit in the run output.
type UnitResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Case        string        `json:"case"`
	Browser     string        `json:"browser"`
	Status      record.Status `json:"status"`
	ExecutionID string        `json:"execution_id,omitempty"`
	Error       string        `json:"error,omitempty"`
	Screenshot  string        `json:"screenshot,omitempty"`
}

// RunResult is the run command's output.
type RunResult struct {
	RunID   string         `json:"run_id"`
	Units   []UnitResult   `json:"units"`
	Summary record.Summary `json:"summary"`
	Results string         `json:"results"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every automated case",
		Long: `Execute every automated case of the catalog.

Each case expands into one unit per data value and browser. Units run in
parallel on a bounded worker pool; every execution is appended to the
results log, and to the SQLite database when --db is given.

Exit codes:
  0 - All units passed
  1 - One or more units failed
  2 - Command error (bad config, unreadable or malformed catalog, etc.)

Examples:
  casegrid run --catalog ./test-management
  casegrid run --browser chromium --browser msedge --workers 4
  casegrid run --scenario TS001 --filter "*dress*" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnits(opts, cmd)
		},
	}

	opts.catalogFlags.bind(cmd)
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "units run at once (default from config)")
	cmd.Flags().StringVar(&opts.Results, "results", "", "results CSV log path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database mirroring executions")
	cmd.Flags().StringVar(&opts.RemoteURL, "remote-browser", "", "DevTools websocket URL of a running browser")

	return cmd
}

func (o *RunOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	o.catalogFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("workers") {
		cfg.Workers = o.Workers
	}
	if cmd.Flags().Changed("results") {
		cfg.ResultsCSV = o.Results
	}
	if cmd.Flags().Changed("db") {
		cfg.ResultsDB = o.Database
	}
}

func runUnits(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after running units", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ws := newWorkspace(cfg, logger)
	units, err := ws.units(ctx, &opts.catalogFlags)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to load catalog", err)
	}
	logger.Info("units materialized", "units", len(units), "browsers", len(cfg.Browsers))

	if len(units) == 0 {
		if opts.Format == "json" {
			return formatter.Success(RunResult{Units: []UnitResult{}, Summary: record.Summarize(nil), Results: cfg.ResultsPath()})
		}
		fmt.Fprintln(formatter.Writer, "No units to run.")
		return nil
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = harness.NewRunID
	}
	runID := runIDs()

	csvLog, err := record.OpenCSVLog(cfg.ResultsPath())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to open results log", err)
	}
	defer func() {
		if cerr := csvLog.Close(); cerr != nil {
			logger.Error("error closing results log", "error", cerr)
		}
	}()
	sinks := []record.Sink{csvLog}

	var st *store.Store
	if cfg.ResultsDB != "" {
		st, err = store.Open(cfg.ResultsDB)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to open database", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Error("error closing database", "error", cerr)
			}
		}()
		sinks = append(sinks, store.RunSink{Store: st, RunID: runID})
	}

	sessions := opts.Sessions
	if sessions == nil {
		f, err := browser.NewFactory(browser.Options{
			BaseURL:      cfg.BaseURL,
			ArtifactsDir: cfg.ArtifactsDir,
			Headless:     cfg.Headless,
			RemoteURL:    opts.RemoteURL,
			Logger:       logger,
		})
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to configure browser", err)
		}
		sessions = f.SessionFactory()
	}

	rec := record.NewRecorder(record.Defaults{
		Browser:     cfg.Browsers[0],
		Environment: cfg.Environment,
		ExecutedBy:  cfg.Executor,
	}, sinks, record.WithLogger(logger))

	interp := step.NewInterpreter(cfg.ActionTimeout, logger)
	interp.NavigationTimeout = cfg.NavigationTimeout
	interp.RequireResultCount = cfg.RequireResultCount

	runner := harness.NewRunner(sessions, interp, rec)
	runner.Store = st
	runner.UnitTimeout = cfg.UnitTimeout
	runner.Logger = logger

	pool := harness.NewPool(runner, cfg.Workers)
	pool.Logger = logger
	pool.OnResult = func(res harness.Result) {
		formatter.VerboseLog("%s %s", statusMark(res), res.Unit.DisplayLabel())
	}

	report, runErr := pool.RunWithID(ctx, runID, units)
	if report == nil {
		return formatter.Fail(ExitCommandError, ErrCodeResults, "run failed", runErr)
	}

	result := buildRunResult(report, cfg.ResultsPath())
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeRunText(formatter.Writer, result, report)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}
	if failed := report.Failed(); failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d of %d units failed", ErrCodeUnitsFailed, failed, len(report.Results)))
	}
	return nil
}

func statusMark(res harness.Result) string {
	switch {
	case res.Skipped:
		return "-"
	case res.Passed():
		return "✓"
	default:
		return "✗"
	}
}

func buildRunResult(report *harness.Report, resultsPath string) RunResult {
	out := RunResult{
		RunID:   report.RunID,
		Units:   make([]UnitResult, 0, len(report.Results)),
		Summary: report.Summary,
		Results: resultsPath,
	}
	for _, res := range report.Results {
		ur := UnitResult{
			ID:          res.Unit.ID(),
			Name:        res.Unit.Name(),
			Case:        res.Unit.Case.ID,
			Browser:     res.Unit.Env.Browser,
			Status:      res.Record.Status,
			ExecutionID: res.Record.ExecutionID,
			Screenshot:  res.Record.ScreenshotPath,
		}
		if res.Skipped {
			ur.Status = record.StatusUnknown
		}
		if res.Err != nil {
			ur.Error = res.Err.Error()
		}
		out.Units = append(out.Units, ur)
	}
	return out
}

func writeRunText(w io.Writer, result RunResult, report *harness.Report) {
	for i, res := range report.Results {
		line := fmt.Sprintf("%s %s", statusMark(res), res.Unit.DisplayLabel())
		if u := result.Units[i]; u.Error != "" {
			line += "\n    " + u.Error
			if u.Screenshot != "" {
				line += "\n    screenshot: " + u.Screenshot
			}
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	writeSummary(w, result.Summary)
	fmt.Fprintf(w, "Run:       %s\n", result.RunID)
	fmt.Fprintf(w, "Results:   %s\n", result.Results)
}

func writeSummary(w io.Writer, s record.Summary) {
	fmt.Fprintf(w, "Total:     %d\n", s.Total)
	fmt.Fprintf(w, "Passed:    %d\n", s.Passed)
	fmt.Fprintf(w, "Failed:    %d\n", s.Failed)
	if s.Unknown > 0 {
		fmt.Fprintf(w, "Unknown:   %d\n", s.Unknown)
	}
	fmt.Fprintf(w, "Pass rate: %s\n", s.PassRate)
}
