package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/casegrid/internal/record"
	"github.com/roach88/casegrid/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Results  string
	Database string
	RunID    string
	Failures bool
}

// ReportResult is the report command's output.
type ReportResult struct {
	Source   string          `json:"source"`
	RunID    string          `json:"run_id,omitempty"`
	Summary  record.Summary  `json:"summary"`
	Failures []record.Record `json:"failures,omitempty"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded executions",
		Long: `Summarize the execution log: total, passed, failed and pass rate.

Reads the CSV results log by default. With --db the SQLite mirror is read
instead, optionally restricted to one run with --run.

Examples:
  casegrid report
  casegrid report --results ./out/results.csv --failures
  casegrid report --db ./runs.db --run 0190d5c2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Results, "results", "", "results CSV log path (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this SQLite database instead of the CSV log")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "with --db, only this run")
	cmd.Flags().BoolVar(&opts.Failures, "failures", false, "list failed executions")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if cmd.Flags().Changed("results") {
		cfg.ResultsCSV = opts.Results
	}
	if opts.RunID != "" && opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid flags", fmt.Errorf("--run requires --db"))
	}

	var records []record.Record
	source := cfg.ResultsPath()
	if opts.Database != "" {
		source = opts.Database
		// Reporting never creates storage.
		if _, err := os.Stat(opts.Database); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to open database", err)
		}
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to open database", err)
		}
		defer st.Close()
		records, err = st.ReadExecutions(cmd.Context(), opts.RunID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to read executions", err)
		}
	} else {
		records, err = record.ReadLog(source)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeResults, "failed to read results log", err)
		}
	}
	formatter.VerboseLog("Read %d record(s) from %s", len(records), source)

	result := ReportResult{Source: source, RunID: opts.RunID, Summary: record.Summarize(records)}
	if opts.Failures {
		for _, r := range records {
			if r.Status == record.StatusFail {
				result.Failures = append(result.Failures, r)
			}
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Source:    %s\n", result.Source)
	if result.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Run:       %s\n", result.RunID)
	}
	writeSummary(formatter.Writer, result.Summary)
	if len(result.Failures) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Failures:")
		for _, r := range result.Failures {
			fmt.Fprintf(formatter.Writer, "  %s  %s  %s  %s\n", r.ExecutionID, r.TestCaseID, r.Browser, r.ErrorMessage)
		}
	}
	return nil
}
