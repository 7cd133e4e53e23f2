package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// ScanTarget names what a scan covers.
type ScanTarget struct {
	AppDir     string
	AddinDir   string
	ConfigFile string
}

// ScanService drives the scanning engine over a host app, optionally with one addin,
// and reads the produced report back.
type ScanService struct {
	engine  ports.ScanEngine
	options values.ScanOptions
	logger  *slog.Logger
}

// NewScanService creates a scan service. The options apply to every scan it runs
// and never change afterwards.
func NewScanService(engine ports.ScanEngine, options values.ScanOptions, logger *slog.Logger) *ScanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanService{
		engine:  engine,
		options: options,
		logger:  logger,
	}
}

// Options returns the scanner flags this service passes to the engine.
func (s *ScanService) Options() values.ScanOptions {
	return s.options
}

// Scan runs the engine and returns the report it wrote to dest.
//
// The engine run is not preempted by ctx cancellation: an in-flight scan
// always completes. When the engine reports failure the partial report is
// returned alongside a ScanError.
func (s *ScanService) Scan(ctx context.Context, target ScanTarget, dest ports.ReportFile) (entities.Report, error) {
	if err := validateScanTarget(target); err != nil {
		return entities.Report{}, err
	}

	scanTarget := target.AppDir
	if target.AddinDir != "" {
		scanTarget = target.AddinDir
	}

	s.logger.Debug("running scan engine",
		"app_dir", target.AppDir,
		"addin_dir", target.AddinDir,
		"report", dest.Path())

	start := time.Now()
	res, err := s.engine.Run(context.WithoutCancel(ctx), ports.EngineRequest{
		AppDir:     target.AppDir,
		AddinDir:   target.AddinDir,
		ConfigFile: target.ConfigFile,
		ReportPath: dest.Path(),
		Options:    s.options,
	})
	if err != nil {
		return entities.Report{}, apperrors.NewScanError(scanTarget, "failed to run scan engine", err)
	}

	lines, err := dest.ReadLines()
	if err != nil {
		return entities.Report{}, apperrors.NewScanError(scanTarget, "failed to read scan report", err)
	}
	report := entities.NewReport(lines)

	s.logger.Debug("scan engine finished",
		"target", scanTarget,
		"exit_code", res.ExitCode,
		"files", res.FileCount,
		"lines", report.Len(),
		"duration", time.Since(start))

	if !res.Success {
		return report, apperrors.NewScanError(scanTarget, fmt.Sprintf("scan engine exited with code %d", res.ExitCode), nil)
	}
	return report, nil
}

func validateScanTarget(target ScanTarget) error {
	if err := requireDir("app-dir", target.AppDir); err != nil {
		return err
	}
	if target.AddinDir != "" {
		if err := requireDir("addin-dir", target.AddinDir); err != nil {
			return err
		}
	}
	if target.ConfigFile != "" {
		if err := requireFile("scanner-config", target.ConfigFile); err != nil {
			return err
		}
	}
	return nil
}

func requireDir(aspect, path string) error {
	if path == "" {
		return apperrors.NewConfigurationError(aspect, "directory is required", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("directory not found: %s", path), err)
	}
	if !info.IsDir() {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("not a directory: %s", path), nil)
	}
	return nil
}

func requireFile(aspect, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("file not found: %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewConfigurationError(aspect, fmt.Sprintf("expected a file, got a directory: %s", path), nil)
	}
	return nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
