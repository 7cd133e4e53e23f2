// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// CheckRequest encapsulates all inputs needed to check addins against a host app.
type CheckRequest struct {
	// AppDir is the host application root. Empty means locate the installed bundle.
	AppDir string
	// UsePreview selects the preview bundle when AppDir is empty.
	UsePreview bool

	AddinDirs        []string
	AddinArchives    []string
	AddinArchiveDirs []string

	// BaselineFile is read when it exists; otherwise the host app is scanned
	// and the result is written there. Empty means a temporary baseline.
	BaselineFile      string
	ScannerConfigFile string

	// DiffIgnoreFile and DiffOutputFile are only valid with exactly one addin.
	DiffIgnoreFile string
	DiffOutputFile string

	Filters FilterOptions
	Mode    values.CompareMode

	// SaveDiffs persists the staged diffs of failing addins as their ignore lists.
	SaveDiffs bool

	Metadata RequestMetadata
}

// FilterOptions defines filters for addin selection.
type FilterOptions struct {
	FilterExpression string
	IncludeAddinIDs  []string
	ExcludeAddinIDs  []string
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}

// AddinInputCount returns how many addin inputs were given directly.
// Archive directories count as many inputs since they may hold any number of archives.
func (r CheckRequest) AddinInputCount() int {
	n := len(r.AddinDirs) + len(r.AddinArchives)
	if len(r.AddinArchiveDirs) > 0 {
		n += 2
	}
	return n
}

// HasAddins reports whether any addin input was given.
func (r CheckRequest) HasAddins() bool {
	return len(r.AddinDirs)+len(r.AddinArchives)+len(r.AddinArchiveDirs) > 0
}
