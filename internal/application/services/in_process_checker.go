package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	domainServices "github.com/reglet-dev/addin-compat/internal/domain/services"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// Console wording for a failed comparison.
const (
	MessageReportDiffers = "The current assembly binary compatibility report is different from the baseline."
	HeaderMissingLines   = "These expected lines are missing:"
	HeaderNewLines       = "These actual lines are new:"
)

// InProcessChecker checks an addin by scanning it in this process and comparing
// the result against the baseline.
type InProcessChecker struct {
	scanner *ScanService
	store   ports.ReportStore
	logger  *slog.Logger
}

// Ensure interface compliance
var _ ports.AddinChecker = (*InProcessChecker)(nil)

// NewInProcessChecker creates an in-process checker.
func NewInProcessChecker(scanner *ScanService, store ports.ReportStore, logger *slog.Logger) *InProcessChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessChecker{
		scanner: scanner,
		store:   store,
		logger:  logger,
	}
}

// CheckAddin scans the addin, compares it against the baseline and writes the
// new lines to the diff output file.
func (c *InProcessChecker) CheckAddin(ctx context.Context, check ports.AddinCheck) (*ports.AddinCheckOutcome, error) {
	baseline, err := c.loadBaseline(check)
	if err != nil {
		return nil, err
	}

	candidateFile, err := c.store.Create("")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate report file: %w", err)
	}
	defer candidateFile.Dispose()

	candidate, err := c.scanner.Scan(ctx, ScanTarget{
		AppDir:     check.AppDir,
		AddinDir:   check.AddinDir,
		ConfigFile: check.ScannerConfig,
	}, candidateFile)
	if err != nil {
		return nil, err
	}

	ignore, err := c.readLines(check.IgnoreFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}

	comparison := domainServices.NewBaselineComparator(check.Mode).Compare(baseline, candidate, ignore)

	outcome := &ports.AddinCheckOutcome{
		Comparison: &comparison,
		Status:     values.StatusPass,
	}

	if check.DiffOutputFile != "" && len(comparison.NewLines) > 0 {
		diff, err := c.store.Create(check.DiffOutputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create diff file: %w", err)
		}
		if err := diff.WriteLines(comparison.NewLines); err != nil {
			return nil, fmt.Errorf("failed to write diff file: %w", err)
		}
		outcome.DiffFile = diff.Path()
	}

	if !comparison.Passed {
		outcome.Status = values.StatusFail
		outcome.Message = FormatComparisonFailure(comparison)
	}

	c.logger.Debug("addin compared",
		"addin", check.Addin.DisplayName(),
		"passed", comparison.Passed,
		"added", len(comparison.Added),
		"removed", len(comparison.Removed))

	return outcome, nil
}

func (c *InProcessChecker) loadBaseline(check ports.AddinCheck) (entities.Report, error) {
	if check.Baseline != nil {
		return *check.Baseline, nil
	}
	if check.BaselineFile == "" {
		return entities.Report{}, fmt.Errorf("no baseline given for %s", check.Addin.DisplayName())
	}
	lines, err := c.readLines(check.BaselineFile)
	if err != nil {
		return entities.Report{}, fmt.Errorf("failed to read baseline: %w", err)
	}
	return entities.NewReport(lines), nil
}

func (c *InProcessChecker) readLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := c.store.Create(path)
	if err != nil {
		return nil, err
	}
	return f.ReadLines()
}

// FormatComparisonFailure renders a failed comparison the way the console shows it.
func FormatComparisonFailure(result domainServices.ComparisonResult) string {
	var sb strings.Builder
	sb.WriteString(MessageReportDiffers)
	if len(result.Removed) > 0 {
		sb.WriteString("\n")
		sb.WriteString(HeaderMissingLines)
		for _, line := range result.Removed {
			sb.WriteString("\n")
			sb.WriteString(line)
		}
	}
	if len(result.Added) > 0 {
		sb.WriteString("\n")
		sb.WriteString(HeaderNewLines)
		for _, line := range result.Added {
			sb.WriteString("\n")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// InProcessBaselineGenerator scans the host app in this process.
type InProcessBaselineGenerator struct {
	scanner *ScanService
	store   ports.ReportStore
}

// Ensure interface compliance
var _ ports.BaselineGenerator = (*InProcessBaselineGenerator)(nil)

// NewInProcessBaselineGenerator creates an in-process baseline generator.
func NewInProcessBaselineGenerator(scanner *ScanService, store ports.ReportStore) *InProcessBaselineGenerator {
	return &InProcessBaselineGenerator{scanner: scanner, store: store}
}

// GenerateBaseline scans the host app and writes the report to req.OutputFile.
func (g *InProcessBaselineGenerator) GenerateBaseline(ctx context.Context, req ports.BaselineRequest) (entities.Report, error) {
	out, err := g.store.Create(req.OutputFile)
	if err != nil {
		return entities.Report{}, fmt.Errorf("failed to allocate baseline file: %w", err)
	}
	return g.scanner.Scan(ctx, ScanTarget{AppDir: req.AppDir, ConfigFile: req.ScannerConfig}, out)
}
