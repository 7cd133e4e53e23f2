package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	apperrors "github.com/reglet-dev/addin-compat/internal/application/errors"
	"github.com/reglet-dev/addin-compat/internal/application/ports"
)

// BaselineService manages the saved per-addin ignore lists.
type BaselineService struct {
	ignoreLists ports.IgnoreListStore
	store       ports.ReportStore
	logger      *slog.Logger
}

// NewBaselineService creates a new BaselineService.
func NewBaselineService(ignoreLists ports.IgnoreListStore, store ports.ReportStore, logger *slog.Logger) *BaselineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaselineService{
		ignoreLists: ignoreLists,
		store:       store,
		logger:      logger,
	}
}

// List returns every saved ignore list.
func (s *BaselineService) List(ctx context.Context) ([]dto.BaselineEntry, error) {
	return s.ignoreLists.List(ctx)
}

// Show returns the lines of the ignore list saved for an addin identity.
// The identity may be given as "<id>,<version>" or as the bare id when only
// one version has a saved list.
func (s *BaselineService) Show(ctx context.Context, identity string) (*dto.BaselineEntry, []string, error) {
	entries, err := s.ignoreLists.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	var matches []dto.BaselineEntry
	for _, e := range entries {
		if e.LocalID == identity || strings.HasPrefix(e.LocalID, identity+",") {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil, apperrors.NewValidationError("addin", fmt.Sprintf("no saved ignore list for %q", identity))
	case 1:
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.LocalID
		}
		return nil, nil, apperrors.NewValidationError("addin",
			fmt.Sprintf("%q matches several saved ignore lists", identity), ids...)
	}

	f, err := s.store.Create(matches[0].Path)
	if err != nil {
		return nil, nil, err
	}
	lines, err := f.ReadLines()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ignore list: %w", err)
	}
	return &matches[0], lines, nil
}

// Save persists the diffs staged during the last run.
func (s *BaselineService) Save(ctx context.Context) ([]string, error) {
	pending := s.ignoreLists.Pending()
	if len(pending) == 0 {
		s.logger.Info("no diffs to save")
		return nil, nil
	}
	saved, err := s.ignoreLists.Save(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("saved ignore lists", "count", len(saved))
	return saved, nil
}

// HasPending reports whether a run staged diffs that could be saved.
func (s *BaselineService) HasPending() bool {
	return len(s.ignoreLists.Pending()) > 0
}

// Reset deletes every saved ignore list.
func (s *BaselineService) Reset(ctx context.Context) error {
	if err := s.ignoreLists.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("removed saved ignore lists")
	return nil
}
