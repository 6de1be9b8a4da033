package harness

import (
	"context"

	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/step"
)

// Session is one isolated application instance driven by a single unit.
type Session interface {
	step.AppActions

	// Screenshot captures the current page under name and returns the
	// written artifact path.
	Screenshot(ctx context.Context, name string) (string, error)

	Close() error
}

// SessionFactory opens a new session for env.
type SessionFactory func(ctx context.Context, env materialize.Environment) (Session, error)
