// Package output provides formatters for compatibility run results.
package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/version"
)

// SARIFFormatter formats run results as SARIF 2.1.0 JSON.
// Every new or missing report line becomes one result located at the addin.
type SARIFFormatter struct {
	writer io.Writer
}

// NewSARIFFormatter creates a new SARIF formatter.
func NewSARIFFormatter(writer io.Writer) *SARIFFormatter {
	return &SARIFFormatter{writer: writer}
}

// Format writes the run result as SARIF 2.1.0 JSON.
func (f *SARIFFormatter) Format(result *execution.RunResult) error {
	// 1. Create SARIF report
	report := sarif.NewReport()

	// 2. Create run with tool info
	run := sarif.NewRunWithInformationURI(version.Name, "https://github.com/reglet-dev/addin-compat")
	toolVersion := version.Get().Version
	run.Tool.Driver.Version = &toolVersion

	// 3. Map run result
	newSARIFMapper(result).mapToRun(run)

	// 4. Add run to report and write
	report.AddRun(run)
	if err := report.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func ptrString(s string) *string {
	return &s
}

func ptrBool(b bool) *bool {
	return &b
}
