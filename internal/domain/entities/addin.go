package entities

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// AddinSource tells how an addin is distributed on disk.
type AddinSource string

const (
	// AddinSourceDirectory is an already-extracted addin directory.
	AddinSourceDirectory AddinSource = "directory"
	// AddinSourceArchive is a packaged (.mpack / zip) addin.
	AddinSourceArchive AddinSource = "archive"
)

// Addin is an external unit under test.
// It is owned by the orchestrator for the duration of one check and never mutated.
//
// Invariants:
// - Name is never empty (falls back to the base name of Location)
// - Location is an absolute path
type Addin struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Version  string      `json:"version,omitempty" yaml:"version,omitempty"`
	Location string      `json:"location" yaml:"location"`
	Source   AddinSource `json:"source" yaml:"source"`
}

// NewAddin creates an addin, filling identity gaps from the location.
func NewAddin(id, name, version, location string, source AddinSource) (Addin, error) {
	if location == "" {
		return Addin{}, fmt.Errorf("addin location is required")
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return Addin{}, fmt.Errorf("resolve addin location %s: %w", location, err)
	}

	if name == "" {
		name = baseNameWithoutExt(abs)
	}
	if id == "" {
		id = name
	}

	return Addin{
		ID:       id,
		Name:     name,
		Version:  version,
		Location: abs,
		Source:   source,
	}, nil
}

// IsPackaged reports whether the addin needs extraction before scanning.
func (a Addin) IsPackaged() bool {
	return a.Source == AddinSourceArchive
}

// LocalID returns the "<id>,<version>" identity used to key persisted state
// such as ignore lists. It is safe to use as a file name.
func (a Addin) LocalID() string {
	id := a.ID
	if a.Version != "" {
		id += "," + a.Version
	}
	return sanitizeFileName(id)
}

// DisplayName returns "<name> <version>" as shown in summaries.
func (a Addin) DisplayName() string {
	if a.Version == "" {
		return a.Name
	}
	return a.Name + " " + a.Version
}

// WithIdentity returns a copy carrying manifest-derived identity.
// Empty arguments keep the current values.
func (a Addin) WithIdentity(id, name, version string) Addin {
	if id != "" {
		a.ID = id
	}
	if name != "" {
		a.Name = name
	}
	if version != "" {
		a.Version = version
	}
	return a
}

// SortAddins orders addins by name (case-insensitive) so runs are reproducible.
// Ties are broken by version and then location.
func SortAddins(addins []Addin) {
	sort.SliceStable(addins, func(i, j int) bool {
		ni, nj := strings.ToLower(addins[i].Name), strings.ToLower(addins[j].Name)
		if ni != nj {
			return ni < nj
		}
		if addins[i].Version != addins[j].Version {
			return addins[i].Version < addins[j].Version
		}
		return addins[i].Location < addins[j].Location
	})
}

func baseNameWithoutExt(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")

func sanitizeFileName(s string) string {
	return fileNameReplacer.Replace(s)
}
