package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/casegrid/internal/harness"
	"github.com/roach88/casegrid/internal/materialize"
	"github.com/roach88/casegrid/internal/testutil"
)

var catalogDir = filepath.Join("..", "catalog", "testdata", "catalog")

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// storefront returns a session factory of always-succeeding fake shops
// whose no-results warning mentions term.
func storefront(term string) harness.SessionFactory {
	return func(context.Context, materialize.Environment) (harness.Session, error) {
		return &testutil.FakeApp{
			ResultsDisplayed: true,
			Results:          2,
			NoResults:        true,
			Message:          `No results were found for your search "` + term + `"`,
			CartConfirmed:    true,
			Cart:             1,
		}, nil
	}
}
