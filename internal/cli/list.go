package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListedUnit is one unit in the list output.
type ListedUnit struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Case    string   `json:"case"`
	Browser string   `json:"browser"`
	Value   string   `json:"value"`
	Steps   []string `json:"steps"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &catalogFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the units a run would execute",
		Long: `Materialize the catalog and print every unit without running it.

Examples:
  casegrid list --catalog ./test-management
  casegrid list --browser chromium --browser msedge --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, flags, cmd)
		},
	}

	flags.bind(cmd)
	return cmd
}

func runList(opts *RootOptions, flags *catalogFlags, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	units, err := newWorkspace(cfg, logger).units(cmd.Context(), flags)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to load catalog", err)
	}

	if opts.Format == "json" {
		listed := make([]ListedUnit, 0, len(units))
		for _, u := range units {
			lu := ListedUnit{
				ID:      u.ID(),
				Name:    u.Name(),
				Case:    u.Case.ID,
				Browser: u.Env.Browser,
				Value:   u.Value.String(),
				Steps:   make([]string, 0, len(u.Steps)),
			}
			for _, s := range u.Steps {
				lu.Steps = append(lu.Steps, s.Kind.String())
			}
			listed = append(listed, lu)
		}
		return formatter.Success(listed)
	}

	for _, u := range units {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", u.ID(), u.DisplayLabel())
	}
	fmt.Fprintf(formatter.Writer, "%d unit(s)\n", len(units))
	return nil
}
