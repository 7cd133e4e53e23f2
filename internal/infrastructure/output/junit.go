package output

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// JUnitFormatter formats run results as JUnit XML, one test case per addin.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{
		writer: w,
	}
}

// JUnitTestSuites JUnit XML structures
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Format writes the run result as JUnit XML.
func (f *JUnitFormatter) Format(result *execution.RunResult) error {
	suite := JUnitTestSuite{
		Name:     result.AppDir,
		Tests:    result.Summary.TotalAddins,
		Failures: result.Summary.FailedAddins,
		Errors:   result.Summary.ErrorAddins,
		Skipped:  result.Summary.SkippedAddins,
		Time:     result.Duration.Seconds(),
	}

	for _, ar := range result.Addins {
		c := JUnitTestCase{
			Name:      ar.Addin.DisplayName(),
			ClassName: ar.Addin.ID,
			Time:      ar.Duration.Seconds(),
		}

		switch ar.Status {
		case values.StatusFail:
			c.Failure = &JUnitFailure{
				Message: "binary incompatibility detected",
				Content: formatDiff(ar),
			}
		case values.StatusError:
			c.Error = &JUnitError{
				Message: ar.Message,
				Content: ar.Message,
			}
		case values.StatusSkipped:
			c.Skipped = &JUnitSkipped{
				Message: ar.Message,
			}
		}

		suite.TestCases = append(suite.TestCases, c)
	}

	suites := JUnitTestSuites{
		Name:       "Addin Compatibility",
		Tests:      result.Summary.TotalAddins,
		Failures:   result.Summary.FailedAddins,
		Errors:     result.Summary.ErrorAddins,
		Time:       result.Duration.Seconds(),
		TestSuites: []JUnitTestSuite{suite},
	}

	_, err := f.writer.Write([]byte(xml.Header))
	if err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err = f.writer.Write([]byte("\n"))
	return err
}

func formatDiff(ar execution.AddinResult) string {
	if len(ar.Added) == 0 && len(ar.Removed) == 0 {
		return ar.Message
	}
	var b strings.Builder
	writeBlock := func(header string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString(header + "\n")
		for _, l := range lines {
			b.WriteString("  " + l + "\n")
		}
	}
	writeBlock(HeaderNewLines, ar.Added)
	writeBlock(HeaderMissingLines, ar.Removed)
	return b.String()
}
