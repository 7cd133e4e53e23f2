// Package repositories defines interfaces for domain persistence.
package repositories

import (
	"context"

	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// RunResultRepository defines the interface for persisting compatibility run results.
type RunResultRepository interface {
	// Save persists a run result.
	Save(ctx context.Context, result *execution.RunResult) error

	// FindByID retrieves a run result by its unique ID.
	FindByID(ctx context.Context, id values.RunID) (*execution.RunResult, error)

	// FindByAppDir retrieves recent run results for a host app, newest first.
	FindByAppDir(ctx context.Context, appDir string, limit int) ([]*execution.RunResult, error)
}
