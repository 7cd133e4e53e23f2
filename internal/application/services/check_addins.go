// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/repositories"
	domainServices "github.com/reglet-dev/addin-compat/internal/domain/services"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// MessageBaselineFailed is reported when the host app baseline cannot be produced.
const MessageBaselineFailed = "Unable to generate baseline"

// MessageCancelled marks addins that were not started because the run was cancelled.
const MessageCancelled = "cancelled"

// CheckAddinsUseCase orchestrates a complete compatibility run: resolve the
// host app, obtain the baseline, then check every addin in sorted order.
// This is a pure application layer component that depends only on ports.
type CheckAddinsUseCase struct {
	store       ports.ReportStore
	baselines   ports.BaselineGenerator
	checker     ports.AddinChecker
	extractor   ports.AddinExtractor
	discoverer  ports.AddinDiscoverer
	locator     ports.AppBundleLocator
	ignoreLists ports.IgnoreListStore
	results     repositories.RunResultRepository
	aggregator  *domainServices.StatusAggregator
	archiveExts []string
	logger      *slog.Logger
}

// CheckAddinsOption configures optional collaborators of the use case.
type CheckAddinsOption func(*CheckAddinsUseCase)

// WithBundleLocator resolves the host app when no app dir is given.
func WithBundleLocator(locator ports.AppBundleLocator) CheckAddinsOption {
	return func(uc *CheckAddinsUseCase) { uc.locator = locator }
}

// WithIgnoreLists enables per-addin ignore lists and diff staging.
func WithIgnoreLists(store ports.IgnoreListStore) CheckAddinsOption {
	return func(uc *CheckAddinsUseCase) { uc.ignoreLists = store }
}

// WithRunResults records every finished run.
func WithRunResults(repo repositories.RunResultRepository) CheckAddinsOption {
	return func(uc *CheckAddinsUseCase) { uc.results = repo }
}

// WithArchiveExtensions sets the extensions searched for under archive dirs.
func WithArchiveExtensions(exts []string) CheckAddinsOption {
	return func(uc *CheckAddinsUseCase) { uc.archiveExts = exts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CheckAddinsOption {
	return func(uc *CheckAddinsUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// NewCheckAddinsUseCase creates a new check addins use case.
func NewCheckAddinsUseCase(
	store ports.ReportStore,
	baselines ports.BaselineGenerator,
	checker ports.AddinChecker,
	extractor ports.AddinExtractor,
	discoverer ports.AddinDiscoverer,
	opts ...CheckAddinsOption,
) *CheckAddinsUseCase {
	uc := &CheckAddinsUseCase{
		store:       store,
		baselines:   baselines,
		checker:     checker,
		extractor:   extractor,
		discoverer:  discoverer,
		aggregator:  domainServices.NewStatusAggregator(),
		archiveExts: []string{".mpack", ".zip"},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// addinTarget is one addin to check together with its on-disk files.
type addinTarget struct {
	err       error
	extracted ports.ExtractedAddin
	dir       string
	addin     entities.Addin
}

// runState carries the per-run scratch state released when the run ends.
type runState struct {
	result   *execution.RunResult
	diffDir  string
	cleanups []func()
}

func (s *runState) release() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// Execute runs the complete compatibility workflow.
func (uc *CheckAddinsUseCase) Execute(ctx context.Context, req dto.CheckRequest) (*dto.CheckResponse, error) {
	startTime := time.Now()

	// 1. Validate inputs before anything is scanned or persisted
	appDir, filter, err := uc.validateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	run := &runState{result: execution.NewRunResult(appDir)}
	run.result.Mode = string(req.Mode)
	defer run.release()

	// 2. Baseline
	baseline, err := uc.resolveBaseline(ctx, run, req)
	if err != nil {
		uc.finish(ctx, run, values.StatusError)
		return nil, err
	}

	// 3. Addins
	if !req.HasAddins() {
		uc.logger.Info("no addins to check", "baseline", run.result.BaselineSource)
		uc.finish(ctx, run, values.StatusPass)
		return uc.buildResponse(req, startTime, run.result, nil), nil
	}

	targets, err := uc.collectAddins(ctx, run, req, filter)
	if err != nil {
		uc.finish(ctx, run, values.StatusError)
		return nil, err
	}

	diffDir, cleanup, err := uc.store.CreateDir("addin-compat-diffs-*")
	if err != nil {
		uc.finish(ctx, run, values.StatusError)
		return nil, apperrors.NewConfigurationError("temp", "failed to create diff directory", err)
	}
	run.diffDir = diffDir
	run.cleanups = append(run.cleanups, cleanup)

	// 4. Check each addin in order
	var warnings []string
	skipped := 0
	for i, target := range targets {
		if ctx.Err() != nil {
			skipped++
			run.result.AddAddinResult(execution.AddinResult{
				Addin:   target.addin,
				Status:  values.StatusSkipped,
				Message: MessageCancelled,
				Index:   i,
			})
			continue
		}
		if err := uc.transition(run.result, execution.StateCheckingAddin); err != nil {
			return nil, err
		}
		run.result.AddAddinResult(uc.checkAddin(ctx, run, req, baseline, target, i))
	}
	cancelled := skipped > 0
	if cancelled {
		run.result.MarkCancelled()
		warnings = append(warnings, "run cancelled before all addins were checked")
		uc.logger.Warn("run cancelled", "skipped", skipped)
	}

	// 5. Summarize
	status := uc.aggregator.AggregateRunStatus(run.result.Statuses())
	if status == values.StatusSkipped && !cancelled {
		status = values.StatusPass
	}
	uc.finish(ctx, run, status)

	resp := uc.buildResponse(req, startTime, run.result, warnings)
	if cancelled {
		resp.Diagnostics.ExitCode = -1
	}

	// 6. Persist ignore lists only when asked to
	if req.SaveDiffs && uc.ignoreLists != nil {
		saved, err := uc.ignoreLists.Save(ctx)
		if err != nil {
			return resp, fmt.Errorf("failed to save ignore lists: %w", err)
		}
		resp.Diagnostics.SavedIgnoreLists = saved
		uc.logger.Info("saved ignore lists", "count", len(saved))
	}

	return resp, nil
}

func (uc *CheckAddinsUseCase) validateRequest(ctx context.Context, req dto.CheckRequest) (string, *domainServices.AddinFilter, error) {
	appDir, err := uc.resolveAppDir(ctx, req)
	if err != nil {
		return "", nil, err
	}

	for _, dir := range req.AddinDirs {
		if err := requireDir("addin-dir", dir); err != nil {
			return "", nil, err
		}
	}
	for _, archive := range req.AddinArchives {
		if err := requireFile("addin-archive", archive); err != nil {
			return "", nil, err
		}
	}
	for _, dir := range req.AddinArchiveDirs {
		if err := requireDir("addin-archive-dir", dir); err != nil {
			return "", nil, err
		}
	}
	if req.ScannerConfigFile != "" {
		if err := requireFile("scanner-config", req.ScannerConfigFile); err != nil {
			return "", nil, err
		}
	}

	if req.DiffIgnoreFile != "" || req.DiffOutputFile != "" {
		if req.AddinInputCount() != 1 {
			return "", nil, apperrors.NewValidationError(
				"diff-files",
				"--diff-ignore-file and --diff-output-file require exactly one addin",
			)
		}
	}
	if req.DiffIgnoreFile != "" {
		if err := requireFile("diff-ignore-file", req.DiffIgnoreFile); err != nil {
			return "", nil, err
		}
	}

	if _, err := values.ParseCompareMode(string(req.Mode)); err != nil {
		return "", nil, apperrors.NewValidationError("compare-mode", err.Error())
	}

	program, err := domainServices.CompileAddinFilter(req.Filters.FilterExpression)
	if err != nil {
		return "", nil, apperrors.NewValidationError(
			"filters",
			fmt.Sprintf("invalid --filter expression: %v\nExample: packaged && name startsWith 'Mono'", err),
		)
	}
	filter := domainServices.NewAddinFilter().
		WithOnlyAddins(req.Filters.IncludeAddinIDs).
		WithExcludedAddins(req.Filters.ExcludeAddinIDs).
		WithFilterExpression(program)

	return appDir, filter, nil
}

func (uc *CheckAddinsUseCase) resolveAppDir(ctx context.Context, req dto.CheckRequest) (string, error) {
	appDir := req.AppDir
	if appDir == "" {
		if uc.locator == nil {
			return "", apperrors.NewConfigurationError("app-dir", "--app-dir is required", nil)
		}
		located, err := uc.locator.Locate(ctx, req.UsePreview)
		if err != nil {
			return "", apperrors.NewConfigurationError("app-dir", "unable to locate the host application", err)
		}
		uc.logger.Info("located host application", "path", located, "preview", req.UsePreview)
		appDir = located
	}

	abs, err := filepath.Abs(appDir)
	if err != nil {
		return "", apperrors.NewConfigurationError("app-dir", "invalid path", err)
	}
	if err := requireDir("app-dir", abs); err != nil {
		return "", err
	}
	return abs, nil
}

// resolveBaseline reads an existing baseline file, or scans the host app.
// A named baseline file that does not exist yet is written after a successful scan.
func (uc *CheckAddinsUseCase) resolveBaseline(ctx context.Context, run *runState, req dto.CheckRequest) (entities.Report, error) {
	if err := uc.transition(run.result, execution.StateGeneratingBaseline); err != nil {
		return entities.Report{}, err
	}

	if req.BaselineFile != "" && fileExists(req.BaselineFile) {
		f, err := uc.store.Create(req.BaselineFile)
		if err != nil {
			return entities.Report{}, uc.baselineFailed(run, err)
		}
		lines, err := f.ReadLines()
		if err != nil {
			return entities.Report{}, uc.baselineFailed(run, err)
		}
		run.result.BaselineSource = f.Path()
		uc.logger.Info("loaded baseline", "path", f.Path(), "lines", len(lines))
		return entities.NewReport(lines), uc.transition(run.result, execution.StateBaselineReady)
	}

	// The scan writes to a scratch file; a named baseline is only written once it succeeded.
	out, err := uc.store.Create("")
	if err != nil {
		return entities.Report{}, uc.baselineFailed(run, err)
	}
	run.cleanups = append(run.cleanups, out.Dispose)

	uc.logger.Info("generating baseline", "app_dir", run.result.AppDir, "output", out.Path())
	report, err := uc.baselines.GenerateBaseline(ctx, ports.BaselineRequest{
		AppDir:        run.result.AppDir,
		ScannerConfig: req.ScannerConfigFile,
		OutputFile:    out.Path(),
	})
	if err != nil {
		return entities.Report{}, uc.baselineFailed(run, err)
	}

	run.result.BaselineSource = out.Path()
	if req.BaselineFile != "" {
		if err := uc.saveBaseline(req.BaselineFile, report); err != nil {
			return entities.Report{}, uc.baselineFailed(run, err)
		}
		run.result.BaselineSource = req.BaselineFile
	}
	uc.logger.Info("baseline ready", "lines", report.Len(), "source", run.result.BaselineSource)
	return report, uc.transition(run.result, execution.StateBaselineReady)
}

// saveBaseline writes a generated baseline to the operator's path.
// A failed write leaves no file behind.
func (uc *CheckAddinsUseCase) saveBaseline(path string, report entities.Report) error {
	f, err := uc.store.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteLines(report.Lines()); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to write baseline %s: %w", path, err)
	}
	return nil
}

func (uc *CheckAddinsUseCase) baselineFailed(run *runState, cause error) error {
	run.result.BaselineError = MessageBaselineFailed
	if err := uc.transition(run.result, execution.StateBaselineFailed); err != nil {
		return err
	}
	uc.logger.Error("baseline generation failed", "error", cause)

	// A scan error for the host app already names it; keep only its detail.
	var scanErr *apperrors.ScanError
	if errors.As(cause, &scanErr) && scanErr.Target == run.result.AppDir {
		if scanErr.Cause != nil {
			cause = fmt.Errorf("%s: %w", scanErr.Message, scanErr.Cause)
		} else {
			cause = errors.New(scanErr.Message)
		}
	}
	return apperrors.NewScanError(run.result.AppDir, MessageBaselineFailed, cause)
}

// collectAddins gathers, extracts, filters and sorts every addin input.
func (uc *CheckAddinsUseCase) collectAddins(
	ctx context.Context,
	run *runState,
	req dto.CheckRequest,
	filter *domainServices.AddinFilter,
) ([]addinTarget, error) {
	targets := make([]addinTarget, 0, len(req.AddinDirs)+len(req.AddinArchives))

	for _, dir := range req.AddinDirs {
		addin, err := entities.NewAddin("", "", "", dir, entities.AddinSourceDirectory)
		if err != nil {
			return nil, apperrors.NewConfigurationError("addin-dir", "invalid addin directory", err)
		}
		addin = uc.applyManifest(addin, addin.Location)
		targets = append(targets, addinTarget{addin: addin, dir: addin.Location})
	}

	archives := append([]string{}, req.AddinArchives...)
	if len(req.AddinArchiveDirs) > 0 {
		found, err := uc.discoverer.FindArchives(ctx, req.AddinArchiveDirs, uc.archiveExts)
		if err != nil {
			return nil, apperrors.NewConfigurationError("addin-archive-dir", "failed to search for addin archives", err)
		}
		uc.logger.Debug("found addin archives", "count", len(found))
		archives = append(archives, found...)
	}

	for _, archive := range archives {
		addin, err := entities.NewAddin("", "", "", archive, entities.AddinSourceArchive)
		if err != nil {
			return nil, apperrors.NewConfigurationError("addin-archive", "invalid addin archive", err)
		}

		extracted, err := uc.extractor.Extract(ctx, addin.Location)
		if err != nil {
			uc.logger.Warn("failed to extract addin", "archive", archive, "error", err)
			targets = append(targets, addinTarget{addin: addin, err: err})
			continue
		}
		run.cleanups = append(run.cleanups, extracted.Dispose)

		addin = uc.applyManifest(addin, extracted.Dir())
		targets = append(targets, addinTarget{addin: addin, dir: extracted.Dir(), extracted: extracted})
	}

	selected := targets[:0]
	for _, t := range targets {
		if ok, reason := filter.ShouldCheck(t.addin); !ok {
			uc.logger.Debug("addin filtered out", "addin", t.addin.DisplayName(), "reason", reason)
			continue
		}
		selected = append(selected, t)
	}

	sortTargets(selected)
	return selected, nil
}

func (uc *CheckAddinsUseCase) applyManifest(addin entities.Addin, dir string) entities.Addin {
	manifest, err := uc.discoverer.ReadManifest(dir)
	if err != nil {
		uc.logger.Debug("unreadable addin manifest", "dir", dir, "error", err)
		return addin
	}
	if manifest == nil {
		return addin
	}
	return addin.WithIdentity(manifest.ID, manifest.Name, manifest.Version)
}

func sortTargets(targets []addinTarget) {
	addins := make([]entities.Addin, len(targets))
	byLocation := make(map[string][]addinTarget, len(targets))
	for i, t := range targets {
		addins[i] = t.addin
		byLocation[t.addin.Location] = append(byLocation[t.addin.Location], t)
	}
	entities.SortAddins(addins)
	for i, a := range addins {
		queue := byLocation[a.Location]
		targets[i] = queue[0]
		byLocation[a.Location] = queue[1:]
	}
}

// checkAddin checks one addin; failures are confined to its own result.
func (uc *CheckAddinsUseCase) checkAddin(
	ctx context.Context,
	run *runState,
	req dto.CheckRequest,
	baseline entities.Report,
	target addinTarget,
	index int,
) execution.AddinResult {
	start := time.Now()
	result := execution.AddinResult{Addin: target.addin, Index: index}

	uc.logger.Info("checking addin", "name", target.addin.Name, "version", target.addin.Version)

	if target.err != nil {
		result.Status = values.StatusError
		result.Message = fmt.Sprintf("failed to extract addin: %v", target.err)
		result.Duration = time.Since(start)
		return result
	}

	check := ports.AddinCheck{
		Addin:          target.addin,
		AppDir:         run.result.AppDir,
		AddinDir:       target.dir,
		BaselineFile:   run.result.BaselineSource,
		Baseline:       &baseline,
		IgnoreFile:     uc.ignoreFileFor(req, target.addin),
		DiffOutputFile: req.DiffOutputFile,
		ScannerConfig:  req.ScannerConfigFile,
		Mode:           req.Mode,
	}
	if check.DiffOutputFile == "" {
		check.DiffOutputFile = filepath.Join(run.diffDir, target.addin.LocalID()+"-diff.txt")
	}

	outcome, err := uc.checker.CheckAddin(ctx, check)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = values.StatusError
		result.Message = err.Error()
		uc.logger.Error("addin check failed", "addin", target.addin.DisplayName(), "error", err)
		return result
	}

	result.Status = outcome.Status
	result.Message = outcome.Message
	result.DiffFile = outcome.DiffFile
	if outcome.Comparison != nil {
		result.Added = outcome.Comparison.Added
		result.Removed = outcome.Comparison.Removed
	}

	if outcome.Status == values.StatusFail {
		uc.logger.Warn("addin is not compatible", "addin", target.addin.DisplayName())
		uc.stageDiff(target.addin, outcome.DiffFile)
	} else {
		uc.logger.Info("addin is compatible", "addin", target.addin.DisplayName())
	}
	return result
}

func (uc *CheckAddinsUseCase) ignoreFileFor(req dto.CheckRequest, addin entities.Addin) string {
	if req.DiffIgnoreFile != "" {
		return req.DiffIgnoreFile
	}
	if uc.ignoreLists == nil {
		return ""
	}
	if path, ok := uc.ignoreLists.ExistingFile(addin); ok {
		uc.logger.Debug("using saved ignore list", "addin", addin.DisplayName(), "path", path)
		return path
	}
	return ""
}

func (uc *CheckAddinsUseCase) stageDiff(addin entities.Addin, diffFile string) {
	if uc.ignoreLists == nil || diffFile == "" || !fileExists(diffFile) {
		return
	}
	if err := uc.ignoreLists.Stage(addin, diffFile); err != nil {
		uc.logger.Warn("failed to stage diff", "addin", addin.DisplayName(), "error", err)
	}
}

// finish summarizes the run, moves it to Done and records it.
func (uc *CheckAddinsUseCase) finish(ctx context.Context, run *runState, status values.Status) {
	if err := uc.transition(run.result, execution.StateSummarizing); err != nil {
		uc.logger.Debug("skipping summarize transition", "error", err)
	}
	run.result.Finalize(status)
	if err := uc.transition(run.result, execution.StateDone); err != nil {
		uc.logger.Debug("skipping done transition", "error", err)
	}

	for _, line := range strings.Split(run.result.Summary.Message, "\n") {
		uc.logger.Info(line)
	}
	uc.logger.Info("run complete",
		"duration", run.result.Duration,
		"total_addins", run.result.Summary.TotalAddins,
		"passed", run.result.Summary.PassedAddins,
		"failed", run.result.Summary.FailedAddins,
		"errors", run.result.Summary.ErrorAddins,
		"skipped", run.result.Summary.SkippedAddins)

	if uc.results != nil {
		if err := uc.results.Save(ctx, run.result); err != nil {
			uc.logger.Debug("failed to record run result", "error", err)
		}
	}
}

func (uc *CheckAddinsUseCase) transition(result *execution.RunResult, next execution.RunState) error {
	from := result.CurrentState()
	if err := result.Transition(next); err != nil {
		return err
	}
	if from != next {
		uc.logger.Debug("run state changed", "from", from, "to", next, "run_id", result.RunID)
	}
	return nil
}

func (uc *CheckAddinsUseCase) buildResponse(
	req dto.CheckRequest,
	startTime time.Time,
	result *execution.RunResult,
	warnings []string,
) *dto.CheckResponse {
	return &dto.CheckResponse{
		RunResult: result,
		Metadata: dto.ResponseMetadata{
			RequestID:   req.Metadata.RequestID,
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
		},
		Diagnostics: dto.Diagnostics{
			Warnings: warnings,
			ExitCode: uc.aggregator.ExitCode(result.Status),
		},
	}
}

// IsBaselineFailure reports whether err aborted a run during baseline generation.
func IsBaselineFailure(err error) bool {
	var scanErr *apperrors.ScanError
	return errors.As(err, &scanErr) && scanErr.Message == MessageBaselineFailed
}
