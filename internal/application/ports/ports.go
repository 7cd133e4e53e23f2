// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
)

// SystemConfigProvider loads system configuration.
type SystemConfigProvider interface {
	Load(path string) (*system.Config, error)
}

// AddinManifest is the identity read from an addin's manifest file.
type AddinManifest struct {
	ID      string
	Name    string
	Version string
}

// AddinDiscoverer finds addins and addin archives on disk.
type AddinDiscoverer interface {
	// Discover returns the addins installed under root, latest version per id.
	Discover(ctx context.Context, root string) ([]entities.Addin, error)

	// ReadManifest reads the manifest in dir. Returns nil, nil when dir has none.
	ReadManifest(dir string) (*AddinManifest, error)

	// FindArchives returns every archive under dirs whose extension is in exts, sorted.
	FindArchives(ctx context.Context, dirs []string, exts []string) ([]string, error)
}

// ExtractedAddin is a packaged addin unpacked into a temporary directory.
type ExtractedAddin interface {
	// Dir is the directory holding the extracted files.
	Dir() string

	// Dispose removes the extracted files. Safe to call more than once.
	Dispose()
}

// AddinExtractor unpacks packaged addins.
type AddinExtractor interface {
	Extract(ctx context.Context, archivePath string) (ExtractedAddin, error)
}

// AppBundleLocator finds the installed host application.
type AppBundleLocator interface {
	// Locate returns the bundle directory for the stable or preview channel.
	Locate(ctx context.Context, preview bool) (string, error)
}

// OutputFormatter formats run results.
type OutputFormatter interface {
	Format(result *execution.RunResult) error
}

// FormatterOptions tunes output formatting.
type FormatterOptions struct {
	// Indent pretty-prints JSON output.
	Indent bool
	// NoColor disables ANSI colours in table output.
	NoColor bool
	// MaxLines caps the report lines shown per block; non-positive means unlimited.
	MaxLines int
}

// OutputFormatterFactory creates formatters by name.
type OutputFormatterFactory interface {
	Create(format string, w io.Writer, opts FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}

// Closer is a common interface for resources that need cleanup.
type Closer interface {
	io.Closer
}
