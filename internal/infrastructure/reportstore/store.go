// Package reportstore provides temp-directory backed report files.
package reportstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reglet-dev/addin-compat/internal/application/ports"
)

const (
	// tempDirPattern names the private directory created for an unnamed report.
	tempDirPattern = "addin-compat-*"
	// reportFileName is the report file inside that directory.
	reportFileName = "report.txt"
)

// Store creates report files on the local filesystem.
type Store struct {
	baseDir string
	logger  *slog.Logger
}

// Ensure interface compliance
var _ ports.ReportStore = (*Store)(nil)

// New creates a store whose temporary directories live under baseDir
// (os.TempDir() when empty).
func New(baseDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

// Create returns a report file at preferredPath, creating its parent directory.
// With an empty preferredPath the file lives in a fresh private directory
// that Dispose removes.
func (s *Store) Create(preferredPath string) (ports.ReportFile, error) {
	if preferredPath != "" {
		abs, err := filepath.Abs(preferredPath)
		if err != nil {
			return nil, fmt.Errorf("invalid report path %s: %w", preferredPath, err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		return &File{path: abs, logger: s.logger}, nil
	}

	dir, err := os.MkdirTemp(s.baseDir, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary report directory: %w", err)
	}
	return &File{
		path:   filepath.Join(dir, reportFileName),
		owned:  dir,
		logger: s.logger,
	}, nil
}

// CreateDir returns a fresh private directory and a cleanup function that removes it.
func (s *Store) CreateDir(prefix string) (string, func(), error) {
	if prefix == "" {
		prefix = tempDirPattern
	}
	dir, err := os.MkdirTemp(s.baseDir, prefix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, func() { removeAll(dir, s.logger) }, nil
}

// File is a report file, optionally owning its parent directory.
type File struct {
	logger *slog.Logger
	path   string
	owned  string
	once   sync.Once
}

// Ensure interface compliance
var _ ports.ReportFile = (*File)(nil)

// Path returns the absolute file path.
func (f *File) Path() string {
	return f.path
}

// Owned reports whether the file lives in a directory Dispose will remove.
func (f *File) Owned() bool {
	return f.owned != ""
}

// WriteLines writes one line per entry, each terminated by a newline.
func (f *File) WriteLines(lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(f.path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write report %s: %w", f.path, err)
	}
	return nil
}

// ReadLines reads the report. A missing file yields no lines.
func (f *File) ReadLines() ([]string, error) {
	//nolint:gosec // G304: report paths come from the operator or from our own temp dirs
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", f.path, err)
	}
	return SplitLines(string(data)), nil
}

// Dispose removes the owned directory. Errors are logged and swallowed.
func (f *File) Dispose() {
	if f.owned == "" {
		return
	}
	f.once.Do(func() { removeAll(f.owned, f.logger) })
}

// SplitLines splits text into lines, accepting CRLF and LF endings.
// A trailing line terminator does not produce an empty final line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

func removeAll(dir string, logger *slog.Logger) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Debug("failed to remove temporary directory", "path", dir, "error", err)
	}
}
