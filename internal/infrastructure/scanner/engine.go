// Package scanner drives the external binary compatibility engine.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/process"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
)

// Response file names written next to each other in the scratch dir.
const (
	filesListName = "files.txt"
	startListName = "start-files.txt"
)

// ExecEngine runs the scanning engine as an external command.
type ExecEngine struct {
	runner   process.Runner
	command  []string
	patterns []string
	logger   *slog.Logger
}

// Ensure interface compliance
var _ ports.ScanEngine = (*ExecEngine)(nil)

// NewExecEngine creates an engine from the system engine configuration.
func NewExecEngine(runner process.Runner, cfg system.EngineConfig, logger *slog.Logger) *ExecEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecEngine{
		runner:   runner,
		command:  cfg.Command,
		patterns: cfg.FilePatterns,
		logger:   logger,
	}
}

// Run collects the files to scan, writes the response files and invokes the engine.
// Only a zero exit code counts as success.
func (e *ExecEngine) Run(ctx context.Context, req ports.EngineRequest) (*ports.EngineResult, error) {
	if len(e.command) == 0 {
		return nil, fmt.Errorf("no scanning engine command configured")
	}
	if req.ReportPath == "" {
		return nil, fmt.Errorf("report path is required")
	}

	excludes, err := LoadExcludes(req.ConfigFile)
	if err != nil {
		return nil, err
	}
	// Exclusions from the scanner config apply to the host app only.
	appSelector := FileSelector{Patterns: e.patterns, Excludes: excludes}
	files, err := appSelector.Collect(ctx, req.AppDir)
	if err != nil {
		return nil, err
	}

	start := files
	if req.AddinDir != "" {
		addinSelector := FileSelector{Patterns: e.patterns}
		if start, err = addinSelector.Collect(ctx, req.AddinDir); err != nil {
			return nil, err
		}
		files = appendMissing(files, start)
	}

	scratch, err := os.MkdirTemp("", "addin-compat-engine-*")
	if err != nil {
		return nil, fmt.Errorf("create engine scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			e.logger.Debug("failed to remove engine scratch dir", "dir", scratch, "error", rmErr)
		}
	}()

	filesList := filepath.Join(scratch, filesListName)
	startList := filepath.Join(scratch, startListName)
	if err := writeList(filesList, files); err != nil {
		return nil, err
	}
	if err := writeList(startList, start); err != nil {
		return nil, err
	}

	args := append([]string{}, e.command[1:]...)
	args = append(args, EngineArgs(req, filesList, startList)...)

	e.logger.Debug("running scanning engine",
		"app_dir", req.AppDir,
		"addin_dir", req.AddinDir,
		"files", len(files),
		"start_files", len(start))

	res, err := e.runner.Run(ctx, process.Command{Name: e.command[0], Args: args})
	if err != nil {
		return nil, fmt.Errorf("run scanning engine: %w", err)
	}

	output := res.Stdout
	if res.Stderr != "" {
		output = strings.TrimRight(output, "\n") + "\n" + res.Stderr
	}
	return &ports.EngineResult{
		Output:    strings.TrimSpace(output),
		ExitCode:  res.ExitCode,
		FileCount: len(files),
		Success:   res.ExitCode == 0,
	}, nil
}

// EngineArgs renders the engine switches for one request.
func EngineArgs(req ports.EngineRequest, filesList, startList string) []string {
	args := []string{
		"--root", req.AppDir,
		"--files", "@" + filesList,
		"--start-files", "@" + startList,
		"--report", req.ReportPath,
	}
	if req.ConfigFile != "" {
		args = append(args, "--config", req.ConfigFile)
	}
	return append(args, req.Options.Args()...)
}

func writeList(path string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// appendMissing appends the entries of extra that dst does not hold yet.
func appendMissing(dst, extra []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, f := range dst {
		seen[f] = struct{}{}
	}
	out := append([]string{}, dst...)
	for _, f := range extra {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
