package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/casegrid/internal/catalog"
	"github.com/roach88/casegrid/internal/param"
	"github.com/roach88/casegrid/internal/step"
)

// Problem is one validation finding.
type Problem struct {
	Table   string `json:"table"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid         bool      `json:"valid"`
	Scenarios     int       `json:"scenarios"`
	Cases         int       `json:"cases"`
	Automated     int       `json:"automated"`
	ParameterSets int       `json:"parameter_sets"`
	Problems      []Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &catalogFlags{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog without running anything",
		Long: `Load every catalog table and compile the steps of every automated case.

Reports every problem found rather than stopping at the first: cases whose
steps match no known step, unknown scenario references and missing or
empty parameter sets.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, flags, cmd)
		},
	}

	cmd.Flags().StringVar(&flags.Catalog, "catalog", "", "catalog directory holding the CSV tables")
	cmd.Flags().BoolVar(&flags.Lenient, "lenient", false, "accept step text that matches no known step")

	return cmd
}

func runValidate(opts *RootOptions, flags *catalogFlags, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	flags.apply(cmd, &cfg)

	ws := newWorkspace(cfg, logger)
	formatter.VerboseLog("Validating catalog in %s", cfg.CatalogDir)

	result, err := validateCatalog(cmd.Context(), ws)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to load catalog", err)
	}

	if len(result.Problems) > 0 {
		return outputValidationProblems(formatter, result)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d scenario(s), %d case(s) (%d automated), %d parameter set(s)\n",
		result.Scenarios, result.Cases, result.Automated, result.ParameterSets)
	return nil
}

// validateCatalog loads every table; table-level failures are returned as
// errors, row-level findings as problems.
func validateCatalog(ctx context.Context, ws *workspace) (ValidationResult, error) {
	scenarios, err := ws.loader.LoadScenarios(ctx)
	if err != nil {
		return ValidationResult{}, err
	}
	cases, err := ws.loader.LoadCases(ctx)
	if err != nil {
		return ValidationResult{}, err
	}
	sets, err := ws.loader.LoadParameterSets(ctx)
	if err != nil {
		return ValidationResult{}, err
	}

	result := ValidationResult{
		Scenarios:     len(scenarios),
		Cases:         len(cases),
		ParameterSets: len(sets),
		Problems:      []Problem{},
	}

	knownScenario := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		knownScenario[s.ID] = true
	}
	setByID := make(map[string]catalog.ParameterSet, len(sets))
	for _, s := range sets {
		setByID[s.ID] = s
	}

	add := func(table, id, code, msg string) {
		result.Problems = append(result.Problems, Problem{Table: table, ID: id, Code: code, Message: msg})
	}

	for _, tc := range cases {
		if !knownScenario[tc.ScenarioID] {
			add(catalog.TableCases, tc.ID, string(catalog.CodeMalformed),
				fmt.Sprintf("unknown scenario %q", tc.ScenarioID))
		}
		if !tc.Automated() {
			continue
		}
		result.Automated++

		if _, err := step.ParseCase(tc, ws.mode()); err != nil {
			add(catalog.TableCases, tc.ID, errorCode(err, string(catalog.CodeMalformed)), err.Error())
		}

		set, ok := setByID[tc.DataSetID]
		switch {
		case tc.DataSetID == "":
			add(catalog.TableCases, tc.ID, string(catalog.CodeMalformed), "automated case has no data set id")
		case !ok:
			add(catalog.TableCases, tc.ID, string(catalog.CodeMalformed),
				fmt.Sprintf("parameter set %q not found", tc.DataSetID))
		case len(param.ParseValues(set.Values)) == 0:
			add(catalog.TableParameterSets, set.ID, string(catalog.CodeMalformed),
				fmt.Sprintf("parameter set has no values (used by %s)", tc.ID))
		}
	}

	result.Valid = len(result.Problems) == 0
	return result, nil
}

// outputValidationProblems outputs every problem found.
func outputValidationProblems(formatter *OutputFormatter, result ValidationResult) error {
	first := result.Problems[0]
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: fmt.Sprintf("%s %s: %s", first.Table, first.ID, first.Message),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(result.Problems)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range result.Problems {
		fmt.Fprintf(formatter.Writer, "  [%s] %s %s: %s\n", p.Code, p.Table, p.ID, p.Message)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%d problem(s) found\n", len(result.Problems))

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(result.Problems)))
}
