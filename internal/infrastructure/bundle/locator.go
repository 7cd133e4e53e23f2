// Package bundle locates the installed host application bundle.
package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
)

const applicationsPrefix = "/Applications/"

var shortVersionPattern = regexp.MustCompile(`<key>CFBundleShortVersionString</key>\s*<string>([^<]*)</string>`)

// Locator picks a host app bundle from the configured candidates.
type Locator struct {
	stable  []string
	preview []string
	logger  *slog.Logger
}

// Ensure interface compliance
var _ ports.AppBundleLocator = (*Locator)(nil)

// NewLocator creates a locator over the configured bundle candidates.
func NewLocator(cfg system.BundlesConfig, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{stable: cfg.Stable, preview: cfg.Preview, logger: logger}
}

// Locate returns the bundle for the stable or preview channel.
// With several installed bundles it prefers the only one under /Applications,
// then the highest bundle version, then the first candidate.
func (l *Locator) Locate(_ context.Context, preview bool) (string, error) {
	candidates := l.stable
	channel := "stable"
	if preview {
		candidates = l.preview
		channel = "preview"
	}

	var found []string
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			found = append(found, c)
		}
	}

	switch len(found) {
	case 0:
		return "", apperrors.NewConfigurationError("app-dir",
			fmt.Sprintf("no %s application bundle found; pass --app-dir", channel), nil)
	case 1:
		return found[0], nil
	}

	var inApplications []string
	for _, f := range found {
		if strings.HasPrefix(f, applicationsPrefix) {
			inApplications = append(inApplications, f)
		}
	}
	if len(inApplications) == 1 {
		l.logger.Info("multiple application bundles found", "using", inApplications[0])
		return inApplications[0], nil
	}

	if latest := l.latest(found); latest != "" {
		l.logger.Info("multiple application bundles found", "using", latest)
		return latest, nil
	}

	l.logger.Info("could not determine latest application bundle version", "using", found[0])
	return found[0], nil
}

func (l *Locator) latest(bundles []string) string {
	var (
		best        string
		bestVersion *semver.Version
	)
	for _, b := range bundles {
		v, err := BundleVersion(b)
		if err != nil {
			l.logger.Info("could not determine app bundle version", "bundle", b, "error", err)
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = b, v
		}
	}
	return best
}

// BundleVersion reads CFBundleShortVersionString from the bundle's Info.plist.
func BundleVersion(bundle string) (*semver.Version, error) {
	data, err := os.ReadFile(filepath.Join(bundle, "Contents", "Info.plist"))
	if err != nil {
		return nil, err
	}
	m := shortVersionPattern.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("no CFBundleShortVersionString in Info.plist")
	}
	return semver.NewVersion(strings.TrimSpace(string(m[1])))
}
