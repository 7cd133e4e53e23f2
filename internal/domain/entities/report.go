package entities

import "sort"

// Report is the line-oriented output of a compatibility scan.
// Each line describes one compatibility fact. Order is the scanner's
// insertion order; comparisons treat the lines as a set.
//
// A Report is immutable: constructors and accessors copy.
type Report struct {
	lines []string
}

// NewReport creates a report from scanner lines.
func NewReport(lines []string) Report {
	if len(lines) == 0 {
		return Report{}
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return Report{lines: cp}
}

// Lines returns a copy of the report lines in scanner order.
func (r Report) Lines() []string {
	if len(r.lines) == 0 {
		return []string{}
	}
	cp := make([]string, len(r.lines))
	copy(cp, r.lines)
	return cp
}

// Len returns the number of lines, duplicates included.
func (r Report) Len() int {
	return len(r.lines)
}

// IsEmpty reports whether the scan produced no lines.
func (r Report) IsEmpty() bool {
	return len(r.lines) == 0
}

// Set returns the distinct lines of the report.
func (r Report) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(r.lines))
	for _, line := range r.lines {
		set[line] = struct{}{}
	}
	return set
}

// Equal reports whether both reports contain the same lines in the same order.
func (r Report) Equal(other Report) bool {
	if len(r.lines) != len(other.lines) {
		return false
	}
	for i := range r.lines {
		if r.lines[i] != other.lines[i] {
			return false
		}
	}
	return true
}

// SortedSet returns the distinct lines in lexical order.
func (r Report) SortedSet() []string {
	set := r.Set()
	out := make([]string, 0, len(set))
	for line := range set {
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}
