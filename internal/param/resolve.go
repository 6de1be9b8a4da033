package param

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/casegrid/internal/catalog"
)

// Resolution is the outcome of resolving one parameter set.
type Resolution struct {
	Values []Value

	// ExpectedMessage is the validation text the data should trigger, or "".
	ExpectedMessage string

	// Missing is true when no parameter set had the requested ID.
	// Values is empty in that case and callers must skip the case.
	Missing bool
}

// Empty reports whether the resolution produced no values.
func (r Resolution) Empty() bool {
	return len(r.Values) == 0
}

// SetSource looks up parameter sets. catalog.Loader satisfies it.
type SetSource interface {
	ParameterSet(ctx context.Context, id string) (catalog.ParameterSet, bool, error)
}

// Resolver turns parameter-set IDs into ordered values.
type Resolver struct {
	source SetSource
	logger *slog.Logger
}

// NewResolver creates a resolver backed by source. A nil logger discards output.
func NewResolver(source SetSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve looks up the parameter set and parses its value list.
// An unknown ID is a soft failure (Missing, nil error); catalog errors
// are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, setID string) (Resolution, error) {
	set, ok, err := r.source.ParameterSet(ctx, setID)
	if err != nil {
		return Resolution{}, err
	}
	if !ok {
		r.logger.Warn("parameter set missing, no units generated", "data_set", setID)
		return Resolution{Values: []Value{}, Missing: true}, nil
	}

	return Resolution{
		Values:          ParseValues(set.Values),
		ExpectedMessage: set.ExpectedMessage,
	}, nil
}
