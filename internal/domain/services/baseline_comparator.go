package services

import (
	"sort"

	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// ComparisonResult is the outcome of comparing a candidate report against a baseline.
// Added and Removed are sorted and de-duplicated; lines are unmodified report text.
type ComparisonResult struct {
	Mode values.CompareMode `json:"mode" yaml:"mode"`
	// Added holds candidate lines missing from the baseline that no ignore entry absorbed.
	Added []string `json:"added" yaml:"added"`
	// Removed holds ignore entries that were expected but did not show up as new lines.
	// In sequence mode it holds baseline lines absent from the candidate.
	Removed []string `json:"removed" yaml:"removed"`
	// NewLines is candidate minus baseline before ignore filtering.
	// This is what a diff report records and what a saved ignore list contains.
	NewLines []string `json:"new_lines" yaml:"new_lines"`
	Passed   bool     `json:"passed" yaml:"passed"`
}

// BaselineComparator compares scanner reports against a trusted baseline.
// It is stateless and never mutates its inputs.
type BaselineComparator struct {
	mode values.CompareMode
}

// NewBaselineComparator creates a comparator for the given mode.
// The zero mode selects set comparison.
func NewBaselineComparator(mode values.CompareMode) *BaselineComparator {
	if mode == "" {
		mode = values.CompareModeSet
	}
	return &BaselineComparator{mode: mode}
}

// Mode returns the comparison mode.
func (c *BaselineComparator) Mode() values.CompareMode {
	return c.mode
}

// Compare checks candidate against baseline, absorbing new lines listed in ignore.
//
// An empty candidate always passes: a scan that produced nothing is never
// reported as a regression.
func (c *BaselineComparator) Compare(baseline, candidate entities.Report, ignore []string) ComparisonResult {
	result := ComparisonResult{
		Mode:     c.mode,
		Added:    []string{},
		Removed:  []string{},
		NewLines: []string{},
	}

	if candidate.IsEmpty() {
		result.Passed = true
		return result
	}

	newLines := difference(candidate.Set(), baseline.Set())
	result.NewLines = sortedKeys(newLines)

	if c.mode == values.CompareModeSequence {
		result.Added = result.NewLines
		result.Removed = sortedKeys(difference(baseline.Set(), candidate.Set()))
		result.Passed = baseline.Equal(candidate)
		return result
	}

	added := newLines
	removed := map[string]struct{}{}
	if len(ignore) > 0 {
		ignoreSet := toLineSet(ignore)
		removed = difference(ignoreSet, added)
		added = difference(added, ignoreSet)
	}

	result.Added = sortedKeys(added)
	result.Removed = sortedKeys(removed)
	result.Passed = len(result.Added) == 0 && len(result.Removed) == 0
	return result
}

// difference returns a − b.
func difference(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a))
	for line := range a {
		if _, ok := b[line]; !ok {
			out[line] = struct{}{}
		}
	}
	return out
}

func toLineSet(lines []string) map[string]struct{} {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for line := range set {
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}
