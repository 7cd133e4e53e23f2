// Package archive unpacks packaged addins (.mpack files are zip archives).
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mholt/archives"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
)

// ErrUnsafePath is returned for archive entries that would land outside the target dir.
var ErrUnsafePath = errors.New("archive entry escapes extraction directory")

// Extractor unpacks archives into fresh temporary directories.
type Extractor struct {
	baseDir string
	logger  *slog.Logger
}

// Ensure interface compliance
var _ ports.AddinExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor. An empty baseDir uses the OS temp dir.
func NewExtractor(baseDir string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{baseDir: baseDir, logger: logger}
}

// Extract unpacks archivePath. The caller must Dispose the result.
func (e *Extractor) Extract(ctx context.Context, archivePath string) (ports.ExtractedAddin, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(archivePath), f)
	if err != nil {
		return nil, fmt.Errorf("identify archive %s: %w", archivePath, err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("archive format %s cannot be extracted", format.Extension())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	dir, err := os.MkdirTemp(e.baseDir, "addin-compat-mpack-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	out := &Extracted{dir: dir, logger: e.logger}

	err = extractor.Extract(ctx, f, func(_ context.Context, info archives.FileInfo) error {
		return writeEntry(dir, info)
	})
	if err != nil {
		out.Dispose()
		return nil, fmt.Errorf("extract %s: %w", archivePath, err)
	}

	e.logger.Debug("extracted archive", "archive", archivePath, "dir", dir)
	return out, nil
}

func writeEntry(dir string, info archives.FileInfo) error {
	target, err := SafeJoin(dir, info.NameInArchive)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	// Links are not needed to scan assemblies.
	if info.LinkTarget != "" || !info.Mode().IsRegular() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := info.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// SafeJoin joins an archive entry name onto dir, rejecting names that escape it.
func SafeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dir, clean), nil
}

// Extracted is an unpacked archive on disk.
type Extracted struct {
	dir    string
	logger *slog.Logger
	once   sync.Once
}

// Dir returns the extraction directory.
func (x *Extracted) Dir() string {
	return x.dir
}

// Dispose removes the extraction directory. It refuses to remove a directory
// whose parent is the filesystem root.
func (x *Extracted) Dispose() {
	x.once.Do(func() {
		if !Removable(x.dir) {
			x.logger.Info("not removing extracted addin", "dir", x.dir)
			return
		}
		if err := os.RemoveAll(x.dir); err != nil {
			x.logger.Debug("failed to remove extracted addin", "dir", x.dir, "error", err)
		}
	})
}

// Removable reports whether dir may be deleted recursively.
func Removable(dir string) bool {
	if dir == "" {
		return false
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	parent := filepath.Dir(abs)
	return parent != abs && filepath.Dir(parent) != parent
}
