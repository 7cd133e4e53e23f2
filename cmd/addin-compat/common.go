package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/spf13/cobra"
)

// CommonOptions contains output and execution flags shared by commands that run checks.
type CommonOptions struct {
	// Output
	Format  string
	OutFile string

	// Execution
	Timeout time.Duration

	NoColor bool
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Format: "table",
	}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	// Execution
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Stop starting new addin checks after this long (0 to disable)")

	// Output
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml, junit, sarif")
	cmd.Flags().StringVarP(&opts.OutFile, "output", "o", opts.OutFile,
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", opts.NoColor,
		"Disable coloured table output")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	validFormats := map[string]bool{
		"table": true, "json": true, "yaml": true,
		"junit": true, "sarif": true,
	}
	if !validFormats[opts.Format] {
		return fmt.Errorf("invalid format: %s (valid: table, json, yaml, junit, sarif)", opts.Format)
	}
	if opts.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	return nil
}

// OpenOutput returns the writer for results and a function closing it.
func (opts *CommonOptions) OpenOutput(stdout io.Writer) (io.Writer, func(), error) {
	if opts.OutFile == "" {
		return stdout, func() {}, nil
	}
	//nolint:gosec // G304: User-controlled output file path is intentional
	file, err := os.Create(opts.OutFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

// FormatterOptions returns the formatter settings. Files never get colour.
func (opts *CommonOptions) FormatterOptions() ports.FormatterOptions {
	return ports.FormatterOptions{
		Indent:  true,
		NoColor: opts.NoColor || opts.OutFile != "",
	}
}
