// Command casegrid runs data-driven browser test catalogs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/casegrid/internal/cli"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	fmt.Fprintln(os.Stderr, "casegrid:", err)
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag and argument errors from cobra.
	return cli.ExitCommandError
}
