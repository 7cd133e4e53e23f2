// Package container provides dependency injection for the application.
package container

import (
	"io"
	"log/slog"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/application/services"
	"github.com/reglet-dev/addin-compat/internal/domain/repositories"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/adapters"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/archive"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/bundle"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/discovery"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/ignorelist"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/output"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/persistence/memory"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/process"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/reportstore"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/scanner"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	systemCfg       *system.Config
	reportStore     *reportstore.Store
	ignoreLists     *ignorelist.Store
	discoverer      *discovery.Discoverer
	runResults      repositories.RunResultRepository
	formatters      *output.FormatterFactory
	checkAddins     *services.CheckAddinsUseCase
	baselineService *services.BaselineService
	checkerKind     string
	logger          *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	// CacheDir overrides the cache_dir of the system config.
	CacheDir string

	// Subprocess checks every addin in a child process of Executable,
	// forwarding its output to Console.
	Subprocess bool
	Executable string
	Console    io.Writer

	// Runner overrides the process runner, mainly for tests.
	Runner process.Runner
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Load system config
	systemCfg, err := adapters.NewSystemConfigAdapter(opts.Logger).Load(opts.SystemConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.CacheDir != "" {
		systemCfg.CacheDir = opts.CacheDir
	}

	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner(opts.Logger)
	}

	// Infrastructure
	store := reportstore.New("", opts.Logger)
	ignoreLists := ignorelist.New(systemCfg.CacheDir, opts.Logger)
	discoverer := discovery.NewDiscoverer(opts.Logger)
	extractor := archive.NewExtractor("", opts.Logger)
	locator := bundle.NewLocator(systemCfg.Bundles, opts.Logger)
	runResults := memory.NewRunResultRepository()

	// Checker: in process by default, or one child process per addin
	var (
		checker     ports.AddinChecker
		baselines   ports.BaselineGenerator
		checkerKind string
	)
	if opts.Subprocess {
		checker = process.NewSubprocessChecker(runner, opts.Executable, opts.Console, opts.Logger)
		baselines = process.NewSubprocessBaselineGenerator(runner, opts.Executable, store, opts.Console)
		checkerKind = "subprocess"
	} else {
		engine := scanner.NewExecEngine(runner, systemCfg.Engine, opts.Logger)
		scan := services.NewScanService(engine, systemCfg.ScanOptions(), opts.Logger)
		checker = services.NewInProcessChecker(scan, store, opts.Logger)
		baselines = services.NewInProcessBaselineGenerator(scan, store)
		checkerKind = "in-process"
	}

	// Wire up use cases
	checkAddins := services.NewCheckAddinsUseCase(
		store,
		baselines,
		checker,
		extractor,
		discoverer,
		services.WithBundleLocator(locator),
		services.WithIgnoreLists(ignoreLists),
		services.WithRunResults(runResults),
		services.WithArchiveExtensions(systemCfg.ArchiveExtensions),
		services.WithLogger(opts.Logger),
	)
	baselineService := services.NewBaselineService(ignoreLists, store, opts.Logger)

	opts.Logger.Debug("container ready", "checker", checkerKind, "cache_dir", systemCfg.CacheDir)

	return &Container{
		systemCfg:       systemCfg,
		reportStore:     store,
		ignoreLists:     ignoreLists,
		discoverer:      discoverer,
		runResults:      runResults,
		formatters:      output.NewFormatterFactory(),
		checkAddins:     checkAddins,
		baselineService: baselineService,
		checkerKind:     checkerKind,
		logger:          opts.Logger,
	}, nil
}

// CheckAddinsUseCase returns the check addins use case.
func (c *Container) CheckAddinsUseCase() *services.CheckAddinsUseCase {
	return c.checkAddins
}

// BaselineService returns the ignore list service.
func (c *Container) BaselineService() *services.BaselineService {
	return c.baselineService
}

// Discoverer returns the addin discoverer.
func (c *Container) Discoverer() ports.AddinDiscoverer {
	return c.discoverer
}

// RunResults returns the repository of finished runs.
func (c *Container) RunResults() repositories.RunResultRepository {
	return c.runResults
}

// Formatters returns the output formatter factory.
func (c *Container) Formatters() ports.OutputFormatterFactory {
	return c.formatters
}

// IgnoreListDir returns the directory holding saved ignore lists.
func (c *Container) IgnoreListDir() string {
	return c.ignoreLists.Dir()
}

// CheckerKind reports whether addins are checked "in-process" or in a "subprocess".
func (c *Container) CheckerKind() string {
	return c.checkerKind
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close drops diffs staged but never saved.
func (c *Container) Close() error {
	return c.ignoreLists.Close()
}
