package materialize

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/casegrid/internal/catalog"
	"github.com/roach88/casegrid/internal/param"
	"github.com/roach88/casegrid/internal/step"
)

// ValueResolver resolves a parameter set ID. *param.Resolver satisfies it.
type ValueResolver interface {
	Resolve(ctx context.Context, setID string) (param.Resolution, error)
}

// Materializer expands cases into units.
type Materializer struct {
	resolver ValueResolver
	mode     step.Mode
	logger   *slog.Logger
}

// New creates a materializer. mode controls how unknown step text is treated.
func New(resolver ValueResolver, mode step.Mode, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Materializer{resolver: resolver, mode: mode, logger: logger}
}

// Materialize returns one unit per (automated case, value, environment).
// Cases whose parameter set is missing or empty contribute no units.
// Step compilation and catalog errors abort with no partial result.
func (m *Materializer) Materialize(ctx context.Context, cases []catalog.TestCase, envs []Environment) ([]Unit, error) {
	var units []Unit
	for _, tc := range cases {
		if !tc.Automated() {
			m.logger.Debug("case not automated, skipped", "case", tc.ID, "automation", tc.Automation)
			continue
		}

		steps, err := step.ParseCase(tc, m.mode)
		if err != nil {
			return nil, err
		}

		res, err := m.resolver.Resolve(ctx, tc.DataSetID)
		if err != nil {
			return nil, err
		}
		if res.Empty() {
			m.logger.Info("case has no data values, skipped",
				"case", tc.ID,
				"data_set", tc.DataSetID,
				"missing", res.Missing,
			)
			continue
		}

		for _, v := range res.Values {
			for _, env := range envs {
				units = append(units, Unit{
					Case:            tc,
					Value:           v,
					ExpectedMessage: res.ExpectedMessage,
					Env:             env,
					Steps:           steps,
				})
			}
		}
		m.logger.Debug("case materialized",
			"case", tc.ID,
			"values", len(res.Values),
			"environments", len(envs),
		)
	}
	if units == nil {
		units = []Unit{}
	}
	return units, nil
}
