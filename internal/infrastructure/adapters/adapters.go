// Package adapters provides infrastructure adapters that implement application ports.
// These adapters wrap existing infrastructure components to satisfy port interfaces.
package adapters

import (
	"fmt"
	"log/slog"

	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
	"github.com/reglet-dev/addin-compat/internal/infrastructure/system"
)

// Ensure adapters implement ports at compile time
var (
	_ ports.SystemConfigProvider = (*SystemConfigAdapter)(nil)
)

// SystemConfigAdapter loads the system config, defaulting the path.
type SystemConfigAdapter struct {
	loader *system.ConfigLoader
	logger *slog.Logger
}

// NewSystemConfigAdapter creates a new system config adapter.
func NewSystemConfigAdapter(logger *slog.Logger) *SystemConfigAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemConfigAdapter{
		loader: system.NewConfigLoader(),
		logger: logger,
	}
}

// Load reads the system config at path, or at the default location when path is empty.
// Invalid documents are reported as configuration errors.
func (a *SystemConfigAdapter) Load(path string) (*system.Config, error) {
	if path == "" {
		path = system.DefaultConfigPath()
	}
	cfg, err := a.loader.Load(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("system-config",
			fmt.Sprintf("cannot load %s", path), err)
	}
	a.logger.Debug("loaded system config", "path", path, "cache_dir", cfg.CacheDir)
	return cfg, nil
}
