// Package discovery finds installed addins and packaged addin archives.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"golang.org/x/sync/errgroup"
)

// Discoverer scans the filesystem for addins.
type Discoverer struct {
	logger *slog.Logger
}

// Ensure interface compliance
var _ ports.AddinDiscoverer = (*Discoverer)(nil)

// NewDiscoverer creates a discoverer.
func NewDiscoverer(logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{logger: logger}
}

// Discover returns the addins installed directly under root.
// Only the latest version of each addin id is returned, sorted by name.
func (d *Discoverer) Discover(ctx context.Context, root string) ([]entities.Addin, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read addins root: %w", err)
	}

	latest := make(map[string]entities.Addin)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		manifest, err := d.ReadManifest(dir)
		if err != nil {
			d.logger.Warn("skipping addin with unreadable manifest", "dir", dir, "error", err)
			continue
		}
		if manifest == nil {
			continue
		}

		addin, err := entities.NewAddin(manifest.ID, manifest.Name, manifest.Version, dir, entities.AddinSourceDirectory)
		if err != nil {
			return nil, err
		}
		if prev, ok := latest[addin.ID]; ok && !NewerVersion(addin.Version, prev.Version) {
			d.logger.Debug("skipping older addin version", "id", addin.ID, "version", addin.Version)
			continue
		}
		latest[addin.ID] = addin
	}

	addins := make([]entities.Addin, 0, len(latest))
	for _, a := range latest {
		addins = append(addins, a)
	}
	entities.SortAddins(addins)
	return addins, nil
}

// ReadManifest reads the manifest in dir. Returns nil, nil when dir has none.
func (d *Discoverer) ReadManifest(dir string) (*ports.AddinManifest, error) {
	path, err := FindManifest(dir)
	if err != nil || path == "" {
		return nil, err
	}
	return ParseManifest(path)
}

// FindArchives returns every file under dirs whose extension is in exts.
// Directories are walked concurrently; the result is sorted.
func (d *Discoverer) FindArchives(ctx context.Context, dirs []string, exts []string) ([]string, error) {
	wanted := make(map[string]bool, len(exts))
	for _, e := range exts {
		wanted[strings.ToLower(e)] = true
	}

	found := make([][]string, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		g.Go(func() error {
			return filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if e.Type().IsRegular() && wanted[strings.ToLower(filepath.Ext(path))] {
					found[i] = append(found[i], path)
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("find addin archives: %w", err)
	}

	var all []string
	for _, f := range found {
		all = append(all, f...)
	}
	sort.Strings(all)
	d.logger.Debug("found addin archives", "count", len(all))
	return all, nil
}

// NewerVersion reports whether version a is newer than b.
// Versions that are not semver fall back to string comparison.
func NewerVersion(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.GreaterThan(vb)
	}
	return a > b
}
