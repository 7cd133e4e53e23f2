package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// Block headers, as printed by the compatibility checker console.
const (
	HeaderNewLines     = "These actual lines are new:"
	HeaderMissingLines = "These expected lines are missing:"
)

const ruleWidth = 80

// TableFormatter formats run results as human-readable text.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
	// MaxLines caps each block of report lines; non-positive shows everything.
	MaxLines int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true,
		MaxLines:    execution.DefaultMaxDisplayLines,
	}
}

type palette struct {
	bold, gray, green, red, yellow, cyan func(a ...interface{}) string
}

func (f *TableFormatter) palette() palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if f.EnableColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bold:   mk(color.Bold),
		gray:   mk(color.FgHiBlack),
		green:  mk(color.FgGreen),
		red:    mk(color.FgRed),
		yellow: mk(color.FgYellow),
		cyan:   mk(color.FgCyan),
	}
}

// Format writes the run result as text.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) Format(result *execution.RunResult) error {
	p := f.palette()
	rule := p.gray(strings.Repeat("─", ruleWidth))

	fmt.Fprintln(f.writer, rule)
	fmt.Fprintf(f.writer, "App:      %s\n", p.bold(result.AppDir))
	if result.BaselineSource != "" {
		fmt.Fprintf(f.writer, "Baseline: %s\n", result.BaselineSource)
	}
	fmt.Fprintf(f.writer, "Executed: %s\n", result.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if result.BaselineError != "" {
		fmt.Fprintf(f.writer, "%s %s\n", p.red("✗"), result.BaselineError)
	}

	if len(result.Addins) == 0 {
		fmt.Fprintln(f.writer, "No extensions checked.")
	} else {
		fmt.Fprintln(f.writer, p.bold("Extensions:"))
		fmt.Fprintln(f.writer, rule)
		for _, ar := range result.Addins {
			f.formatAddin(p, ar)
		}
	}

	fmt.Fprintln(f.writer, rule)
	f.formatSummary(p, result.Summary)
	return nil
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatAddin(p palette, ar execution.AddinResult) {
	symbol, paint := statusInfo(p, ar.Status)
	fmt.Fprintf(f.writer, "%s %s %s\n",
		paint(symbol), ar.Addin.DisplayName(), paint(strings.ToUpper(string(ar.Status))))
	fmt.Fprintf(f.writer, "  Location: %s\n", ar.Addin.Location)

	switch {
	case len(ar.Added) > 0 || len(ar.Removed) > 0:
		f.formatLines(p, HeaderNewLines, ar.Added)
		f.formatLines(p, HeaderMissingLines, ar.Removed)
	case ar.Message != "":
		for _, line := range strings.Split(ar.Message, "\n") {
			fmt.Fprintf(f.writer, "  %s\n", line)
		}
	}

	if ar.DiffFile != "" {
		fmt.Fprintf(f.writer, "  Diff: %s\n", p.cyan(ar.DiffFile))
	}
	fmt.Fprintf(f.writer, "  Duration: %s\n", ar.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatLines(p palette, header string, lines []string) {
	if len(lines) == 0 {
		return
	}
	shown, trunc := execution.TruncateLines(lines, f.MaxLines)
	fmt.Fprintf(f.writer, "  %s\n", p.yellow(header))
	for _, l := range shown {
		fmt.Fprintf(f.writer, "    %s\n", l)
	}
	if trunc != nil {
		fmt.Fprintf(f.writer, "    %s\n", p.gray(trunc.Message))
	}
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatSummary(p palette, s execution.ResultSummary) {
	fmt.Fprintln(f.writer, p.bold("Summary:"))
	fmt.Fprintf(f.writer, "Extensions: %d total\n", s.TotalAddins)
	fmt.Fprintf(f.writer, "  %s Compatible:   %d\n", p.green("✓"), s.PassedAddins)
	fmt.Fprintf(f.writer, "  %s Incompatible: %d\n", p.red("✗"), s.FailedAddins)
	fmt.Fprintf(f.writer, "  %s Errors:       %d\n", p.yellow("⚠"), s.ErrorAddins)
	fmt.Fprintf(f.writer, "  %s Skipped:      %d\n", p.gray("⊘"), s.SkippedAddins)
	if s.Message != "" {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, s.Message)
	}
}

func statusInfo(p palette, status values.Status) (string, func(a ...interface{}) string) {
	switch status {
	case values.StatusPass:
		return "✓", p.green
	case values.StatusFail:
		return "✗", p.red
	case values.StatusError:
		return "⚠", p.yellow
	case values.StatusSkipped:
		return "⊘", p.gray
	default:
		return "?", fmt.Sprint
	}
}
