// Package ignorelist keeps the per-addin ignore lists: the accepted diff
// lines of an addin that a later check should not report again.
package ignorelist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/reportstore"
)

// DirName is the cache subdirectory holding saved ignore lists.
const DirName = "addin-compat-diffs"

const fileSuffix = "-diff.txt"

// Store is a file-backed ignore list cache with a private staging area.
type Store struct {
	dir    string
	logger *slog.Logger

	mu         sync.Mutex
	stagingDir string
	staged     map[string]stagedDiff
}

type stagedDiff struct {
	addin entities.Addin
	path  string
}

// Ensure interface compliance
var _ ports.IgnoreListStore = (*Store)(nil)

// New creates a store under cacheDir.
func New(cacheDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    filepath.Join(cacheDir, DirName),
		logger: logger,
		staged: make(map[string]stagedDiff),
	}
}

// Dir returns the directory holding saved ignore lists.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the file an addin's ignore list is saved to.
func (s *Store) PathFor(addin entities.Addin) string {
	return filepath.Join(s.dir, addin.LocalID()+fileSuffix)
}

// ExistingFile returns the saved ignore list for an addin, if any.
func (s *Store) ExistingFile(addin entities.Addin) (string, bool) {
	path := s.PathFor(addin)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// Load reads the saved ignore list for an addin. Missing lists are empty.
func (s *Store) Load(addin entities.Addin) ([]string, error) {
	data, err := os.ReadFile(s.PathFor(addin))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ignore list: %w", err)
	}
	return reportstore.SplitLines(string(data)), nil
}

// Stage copies diffFile into staging as the addin's pending ignore list.
// Staging the same addin again replaces the earlier diff.
func (s *Store) Stage(addin entities.Addin, diffFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stagingDir == "" {
		dir, err := os.MkdirTemp("", "addin-compat-staged-*")
		if err != nil {
			return fmt.Errorf("create staging dir: %w", err)
		}
		s.stagingDir = dir
	}

	id := addin.LocalID()
	dst := filepath.Join(s.stagingDir, id+fileSuffix)
	if err := copyFile(diffFile, dst); err != nil {
		return fmt.Errorf("stage diff for %s: %w", addin.DisplayName(), err)
	}
	s.staged[id] = stagedDiff{addin: addin, path: dst}
	s.logger.Debug("staged diff", "addin", id)
	return nil
}

// Pending returns the addins with a staged diff, sorted.
func (s *Store) Pending() []entities.Addin {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Addin, 0, len(s.staged))
	for _, d := range s.staged {
		out = append(out, d.addin)
	}
	entities.SortAddins(out)
	return out
}

// Save replaces every saved ignore list with the staged diffs and clears
// staging. It returns the saved identities and is a no-op when nothing is staged.
func (s *Store) Save(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.staged) == 0 {
		return nil, nil
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ignore list dir: %w", err)
	}

	ids := make([]string, 0, len(s.staged))
	for id := range s.staged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := s.staged[id]
		if err := moveFile(d.path, s.PathFor(d.addin)); err != nil {
			return nil, fmt.Errorf("save ignore list for %s: %w", id, err)
		}
		delete(s.staged, id)
	}

	s.logger.Info("saved ignore lists", "count", len(ids), "dir", s.dir)
	return ids, nil
}

// Reset deletes every saved ignore list.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset()
}

func (s *Store) reset() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove ignore lists: %w", err)
	}
	return nil
}

// List describes every saved ignore list, sorted by identity.
func (s *Store) List(_ context.Context) ([]dto.BaselineEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []dto.BaselineEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list ignore lists: %w", err)
	}

	out := make([]dto.BaselineEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read ignore list %s: %w", name, err)
		}
		out = append(out, dto.BaselineEntry{
			LocalID: strings.TrimSuffix(name, fileSuffix),
			Path:    path,
			Lines:   len(reportstore.SplitLines(string(data))),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out, nil
}

// Close drops the staging area and anything still staged.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.staged = make(map[string]stagedDiff)
	if s.stagingDir == "" {
		return nil
	}
	dir := s.stagingDir
	s.stagingDir = ""
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Debug("failed to remove staging dir", "dir", dir, "error", err)
	}
	return nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Staging and cache may live on different volumes.
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
