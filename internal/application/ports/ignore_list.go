package ports

import (
	"context"

	"github.com/reglet-dev/addin-compat/internal/application/dto"
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
)

// IgnoreListStore persists per-addin ignore lists.
// Diffs of failing addins are staged during a run and only become
// ignore lists when Save is called explicitly.
type IgnoreListStore interface {
	// ExistingFile returns the saved ignore list for an addin, if any.
	ExistingFile(addin entities.Addin) (string, bool)

	// Load reads the saved ignore list for an addin. Missing lists are empty.
	Load(addin entities.Addin) ([]string, error)

	// Stage copies diffFile into private staging as the addin's pending ignore list.
	Stage(addin entities.Addin, diffFile string) error

	// Pending returns the addins with a staged diff.
	Pending() []entities.Addin

	// Save replaces every saved ignore list with the staged diffs and clears staging.
	// It is a no-op when nothing is staged.
	Save(ctx context.Context) ([]string, error)

	// Reset deletes every saved ignore list.
	Reset(ctx context.Context) error

	// List describes every saved ignore list.
	List(ctx context.Context) ([]dto.BaselineEntry, error)

	// Close drops the staging area.
	Close() error
}
