package execution

import "fmt"

// DefaultMaxDisplayLines is the default number of report lines shown per block.
const DefaultMaxDisplayLines = 200

// LineTruncation describes lines dropped from a display block.
type LineTruncation struct {
	Shown   int    `json:"shown" yaml:"shown"`
	Total   int    `json:"total" yaml:"total"`
	Message string `json:"message" yaml:"message"`
}

// TruncateLines returns at most limit lines for display.
// It never mutates lines. A non-positive limit disables truncation.
func TruncateLines(lines []string, limit int) ([]string, *LineTruncation) {
	if limit <= 0 || len(lines) <= limit {
		return lines, nil
	}

	shown := make([]string, limit)
	copy(shown, lines[:limit])

	return shown, &LineTruncation{
		Shown:   limit,
		Total:   len(lines),
		Message: fmt.Sprintf("... %d more lines not shown", len(lines)-limit),
	}
}
