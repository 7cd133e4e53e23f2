package dto

import (
	"time"

	"github.com/reglet-dev/addin-compat/internal/domain/execution"
)

// CheckResponse contains the result of a compatibility run.
type CheckResponse struct {
	// RunResult contains the detailed per-addin results
	RunResult *execution.RunResult

	// Metadata contains response metadata
	Metadata ResponseMetadata

	// Diagnostics contains additional diagnostic information
	Diagnostics Diagnostics
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time

	// Duration is how long the request took
	Duration time.Duration
}

// Diagnostics contains diagnostic information about the run.
type Diagnostics struct {
	// Warnings are non-fatal issues encountered
	Warnings []string

	// SavedIgnoreLists lists the ignore list files written when diffs were saved
	SavedIgnoreLists []string

	// ExitCode is the process exit code the run maps to
	ExitCode int
}

// BaselineEntry describes one saved ignore list.
type BaselineEntry struct {
	LocalID string    `json:"local_id" yaml:"local_id"`
	Path    string    `json:"path" yaml:"path"`
	Lines   int       `json:"lines" yaml:"lines"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}
