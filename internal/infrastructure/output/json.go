package output

import (
	"encoding/json"
	"io"

	"github.com/reglet-dev/addin-compat/internal/domain/execution"
)

// JSONFormatter formats run results as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// Format writes the run result as JSON.
func (f *JSONFormatter) Format(result *execution.RunResult) error {
	enc := json.NewEncoder(f.writer)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
