package ports

import (
	"context"

	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/services"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// EngineRequest is one invocation of the scanning engine.
type EngineRequest struct {
	// AppDir is the host application root, always scanned.
	AppDir string
	// AddinDir is the addin being checked; empty for a baseline scan.
	AddinDir string
	// ConfigFile is an optional scanner configuration file.
	ConfigFile string
	// ReportPath is where the engine writes its report.
	ReportPath string
	Options    values.ScanOptions
}

// EngineResult describes how the scanning engine finished.
type EngineResult struct {
	Output    string
	ExitCode  int
	FileCount int
	Success   bool
}

// ScanEngine runs the third-party binary compatibility engine.
type ScanEngine interface {
	Run(ctx context.Context, req EngineRequest) (*EngineResult, error)
}

// AddinCheck is the input for checking one addin.
type AddinCheck struct {
	Addin    entities.Addin
	AppDir   string
	AddinDir string

	// BaselineFile holds the baseline report. Baseline, when set, is its parsed content.
	BaselineFile string
	Baseline     *entities.Report

	// IgnoreFile is an optional ignore list; DiffOutputFile receives the raw new lines.
	IgnoreFile     string
	DiffOutputFile string

	ScannerConfig string
	Mode          values.CompareMode
}

// AddinCheckOutcome is the classified result of checking one addin.
type AddinCheckOutcome struct {
	// Comparison is nil when the checker ran out of process.
	Comparison *services.ComparisonResult
	Status     values.Status
	DiffFile   string
	Message    string
}

// AddinChecker checks one addin against a baseline.
type AddinChecker interface {
	CheckAddin(ctx context.Context, check AddinCheck) (*AddinCheckOutcome, error)
}

// BaselineRequest asks for a baseline report of the host app.
type BaselineRequest struct {
	AppDir        string
	ScannerConfig string
	// OutputFile receives the baseline report.
	OutputFile string
}

// BaselineGenerator produces the baseline report of a host app.
type BaselineGenerator interface {
	GenerateBaseline(ctx context.Context, req BaselineRequest) (entities.Report, error)
}
