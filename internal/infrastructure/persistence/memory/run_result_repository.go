// Package memory provides in-memory implementations of domain repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/repositories"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// Ensure interface compliance
var _ repositories.RunResultRepository = (*RunResultRepository)(nil)

// RunResultRepository keeps run results for the lifetime of the process.
// The console watch loop uses it to compare consecutive runs.
type RunResultRepository struct {
	results map[uuid.UUID]*execution.RunResult
	mu      sync.RWMutex
}

// NewRunResultRepository creates a new in-memory repository.
func NewRunResultRepository() *RunResultRepository {
	return &RunResultRepository{
		results: make(map[uuid.UUID]*execution.RunResult),
	}
}

// Save persists a run result.
// Callers should not modify the result after saving.
func (r *RunResultRepository) Save(_ context.Context, result *execution.RunResult) error {
	if result == nil {
		return fmt.Errorf("run result is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[result.RunID.UUID()] = result
	return nil
}

// FindByID retrieves a run result by its unique ID.
func (r *RunResultRepository) FindByID(_ context.Context, id values.RunID) (*execution.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id.UUID()]
	if !ok {
		return nil, fmt.Errorf("run result not found: %s", id)
	}
	return result, nil
}

// FindByAppDir retrieves recent run results for a host app, newest first.
func (r *RunResultRepository) FindByAppDir(_ context.Context, appDir string, limit int) ([]*execution.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*execution.RunResult
	for _, res := range r.results {
		if res.AppDir == appDir {
			matches = append(matches, res)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartTime.After(matches[j].StartTime)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}
