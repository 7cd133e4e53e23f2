package values

import "fmt"

// CompareMode selects how a candidate report is compared to a baseline.
type CompareMode string

const (
	// CompareModeSet treats both reports as sets of lines. Only lines that are
	// new in the candidate count as regressions, and an ignore list can absorb them.
	CompareModeSet CompareMode = "set"
	// CompareModeSequence requires the candidate to equal the baseline line
	// for line, in order.
	CompareModeSequence CompareMode = "sequence"
)

// ParseCompareMode converts a flag value into a CompareMode.
// The empty string selects CompareModeSet.
func ParseCompareMode(s string) (CompareMode, error) {
	switch CompareMode(s) {
	case "", CompareModeSet:
		return CompareModeSet, nil
	case CompareModeSequence:
		return CompareModeSequence, nil
	default:
		return "", fmt.Errorf("invalid compare mode: %s (valid: set, sequence)", s)
	}
}
