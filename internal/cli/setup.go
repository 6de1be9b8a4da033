package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/spf13/cobra"

	"github.com/roach88/casegrid/internal/catalog"
	"github.com/roach88/casegrid/internal/config"
	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/param"
	"github.com/roach88/casegrid/internal/step"
)

// Error codes reported by the CLI in addition to the catalog codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file or flag error
	ErrCodeResults     = "E003" // Results log or database error
	ErrCodeUnitsFailed = "E004" // One or more units failed
	ErrCodeInvalid     = "E005" // Catalog validation found problems
)

// catalogFlags are the flags shared by commands that materialize units.
type catalogFlags struct {
	Catalog  string
	Browsers []string
	Lenient  bool
	Scenario string
	Filter   string
}

func (f *catalogFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Catalog, "catalog", "", "catalog directory holding the CSV tables")
	cmd.Flags().StringArrayVar(&f.Browsers, "browser", nil, "browser to run on (repeatable)")
	cmd.Flags().BoolVar(&f.Lenient, "lenient", false, "skip step text that matches no known step instead of failing")
	cmd.Flags().StringVar(&f.Scenario, "scenario", "", "only cases of this scenario id")
	cmd.Flags().StringVar(&f.Filter, "filter", "", "only units whose name matches this glob")
}

// apply overlays explicitly set flags on cfg.
func (f *catalogFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("catalog") {
		cfg.CatalogDir = f.Catalog
	}
	if cmd.Flags().Changed("browser") {
		cfg.Browsers = f.Browsers
	}
	if cmd.Flags().Changed("lenient") {
		cfg.LenientSteps = f.Lenient
	}
}

// workspace is the resolved state every catalog command starts from.
type workspace struct {
	cfg    config.Config
	logger *slog.Logger
	loader *catalog.Loader
}

// loadConfig reads --config over the defaults.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(opts.ConfigPath)
}

func newWorkspace(cfg config.Config, logger *slog.Logger) *workspace {
	return &workspace{
		cfg:    cfg,
		logger: logger,
		loader: catalog.NewLoader(catalog.NewCSVStore(cfg.CatalogDir), logger),
	}
}

func (w *workspace) mode() step.Mode {
	if w.cfg.LenientSteps {
		return step.Lenient
	}
	return step.Strict
}

// cases loads the catalog's cases, restricted to scenario when set.
func (w *workspace) cases(ctx context.Context, scenario string) ([]catalog.TestCase, error) {
	if scenario == "" {
		return w.loader.LoadCases(ctx)
	}
	scenarios, err := w.loader.LoadScenarios(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, s := range scenarios {
		if s.ID == scenario {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}
	return w.loader.CasesByScenario(ctx, scenario)
}

// units materializes the run matrix and applies the name filter.
func (w *workspace) units(ctx context.Context, flags *catalogFlags) ([]materialize.Unit, error) {
	cases, err := w.cases(ctx, flags.Scenario)
	if err != nil {
		return nil, err
	}

	resolver := param.NewResolver(w.loader, w.logger)
	m := materialize.New(resolver, w.mode(), w.logger)
	units, err := m.Materialize(ctx, cases, materialize.Matrix(w.cfg.Browsers, w.cfg.Environment))
	if err != nil {
		return nil, err
	}
	if flags.Filter == "" {
		return units, nil
	}
	if _, err := path.Match(flags.Filter, ""); err != nil {
		return nil, fmt.Errorf("invalid --filter %q: %w", flags.Filter, err)
	}

	kept := units[:0]
	for _, u := range units {
		if ok, _ := path.Match(flags.Filter, u.Name()); ok {
			kept = append(kept, u)
		}
	}
	return kept, nil
}
