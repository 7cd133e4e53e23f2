package ports

// ReportFile is a location for a scanner report.
// When created without a preferred path it owns a private temporary
// directory that Dispose removes.
type ReportFile interface {
	// Path is the absolute path of the report file.
	Path() string

	// WriteLines replaces the file content with lines, one per line.
	WriteLines(lines []string) error

	// ReadLines reads the file. A missing file yields no lines and no error.
	ReadLines() ([]string, error)

	// Dispose removes the owned temporary directory, if any.
	// Errors are swallowed and repeated calls are no-ops.
	Dispose()
}

// ReportStore allocates report files and scratch directories.
type ReportStore interface {
	// Create returns a report file at preferredPath, or inside a fresh
	// temporary directory when preferredPath is empty.
	Create(preferredPath string) (ReportFile, error)

	// CreateDir returns a fresh temporary directory and its cleanup function.
	CreateDir(prefix string) (string, func(), error)
}
