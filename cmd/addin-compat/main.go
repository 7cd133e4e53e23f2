// Package main provides the addin-compat CLI, which checks addins for binary
// compatibility with a host application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to a process exit code:
// 0 all compatible, 1 incompatible or errored addins, -1 fatal errors.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		var exitErr *apperrors.ExitError
		if !errors.As(err, &exitErr) || exitErr.Message != "" {
			fmt.Fprintf(stderr, "Error: %v\n", err) //nolint:errcheck // best-effort
		}
	}
	return apperrors.ExitCode(err)
}
