package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// Exit codes of a child `check` run.
const (
	exitCompatible   = 0
	exitIncompatible = 1
)

// SubprocessChecker checks each addin by re-invoking this executable with
// the `check` command, so every scan runs in a fresh process.
type SubprocessChecker struct {
	runner     Runner
	executable string
	console    io.Writer
	logger     *slog.Logger
}

// Ensure interface compliance
var _ ports.AddinChecker = (*SubprocessChecker)(nil)

// NewSubprocessChecker creates a checker that launches executable.
// Child output is forwarded to console when it is non-nil.
func NewSubprocessChecker(runner Runner, executable string, console io.Writer, logger *slog.Logger) *SubprocessChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubprocessChecker{
		runner:     runner,
		executable: executable,
		console:    console,
		logger:     logger,
	}
}

// CheckAddin runs a child check and classifies its exit code:
// 0 is compatible, 1 is incompatible, anything else is an error.
func (c *SubprocessChecker) CheckAddin(ctx context.Context, check ports.AddinCheck) (*ports.AddinCheckOutcome, error) {
	if check.BaselineFile == "" {
		return nil, fmt.Errorf("subprocess checker needs a baseline file")
	}

	// A started child always runs to completion; cancellation only stops the next addin.
	res, err := c.runner.Run(context.WithoutCancel(ctx), Command{
		Name:    c.executable,
		Args:    CheckArgs(check),
		Forward: c.console,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("compatibility checker finished",
		"addin", check.Addin.DisplayName(),
		"exit_code", res.ExitCode,
		"duration", res.Duration)

	switch res.ExitCode {
	case exitCompatible:
		return &ports.AddinCheckOutcome{Status: values.StatusPass, DiffFile: existing(check.DiffOutputFile)}, nil
	case exitIncompatible:
		return &ports.AddinCheckOutcome{
			Status:   values.StatusFail,
			DiffFile: existing(check.DiffOutputFile),
			Message:  strings.TrimSpace(res.Stdout),
		}, nil
	default:
		return nil, fmt.Errorf("compatibility checker exited with code %d: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}
}

// CheckArgs builds the child command line for one addin.
func CheckArgs(check ports.AddinCheck) []string {
	args := []string{
		"check",
		"--app-dir", check.AppDir,
		"--addin-dir", check.AddinDir,
		"--baseline-file", check.BaselineFile,
	}
	if check.IgnoreFile != "" {
		args = append(args, "--diff-ignore-file", check.IgnoreFile)
	}
	if check.DiffOutputFile != "" {
		args = append(args, "--diff-output-file", check.DiffOutputFile)
	}
	if check.ScannerConfig != "" {
		args = append(args, "--scanner-config", check.ScannerConfig)
	}
	if check.Mode != "" && check.Mode != values.CompareModeSet {
		args = append(args, "--compare-mode", string(check.Mode))
	}
	return append(args, "--quiet")
}

// SubprocessBaselineGenerator produces the baseline by re-invoking this
// executable with only an app dir and a baseline file.
type SubprocessBaselineGenerator struct {
	runner     Runner
	executable string
	store      ports.ReportStore
	console    io.Writer
}

// Ensure interface compliance
var _ ports.BaselineGenerator = (*SubprocessBaselineGenerator)(nil)

// NewSubprocessBaselineGenerator creates a subprocess baseline generator.
func NewSubprocessBaselineGenerator(runner Runner, executable string, store ports.ReportStore, console io.Writer) *SubprocessBaselineGenerator {
	return &SubprocessBaselineGenerator{
		runner:     runner,
		executable: executable,
		store:      store,
		console:    console,
	}
}

// GenerateBaseline runs the child and reads the baseline it wrote.
func (g *SubprocessBaselineGenerator) GenerateBaseline(ctx context.Context, req ports.BaselineRequest) (entities.Report, error) {
	if req.OutputFile == "" {
		return entities.Report{}, fmt.Errorf("subprocess baseline generator needs an output file")
	}
	args := []string{"check", "--app-dir", req.AppDir, "--baseline-file", req.OutputFile}
	if req.ScannerConfig != "" {
		args = append(args, "--scanner-config", req.ScannerConfig)
	}
	args = append(args, "--quiet")

	res, err := g.runner.Run(context.WithoutCancel(ctx), Command{Name: g.executable, Args: args, Forward: g.console})
	if err != nil {
		return entities.Report{}, err
	}
	if res.ExitCode != 0 {
		return entities.Report{}, fmt.Errorf("baseline generator exited with code %d: %s",
			res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	f, err := g.store.Create(req.OutputFile)
	if err != nil {
		return entities.Report{}, err
	}
	lines, err := f.ReadLines()
	if err != nil {
		return entities.Report{}, err
	}
	return entities.NewReport(lines), nil
}

func existing(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
