package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// SARIF rule ids.
const (
	RuleNewReference    = "compat/new-reference"
	RuleExpectedMissing = "compat/expected-missing"
	RuleScanError       = "compat/scan-error"
)

type sarifMapper struct {
	result    *execution.RunResult
	cwd       string
	artifacts map[string]*sarif.Artifact
}

func newSARIFMapper(result *execution.RunResult) *sarifMapper {
	cwd, _ := os.Getwd() // Best effort, ignore error
	return &sarifMapper{
		result:    result,
		cwd:       cwd,
		artifacts: make(map[string]*sarif.Artifact),
	}
}

// mapToRun populates the SARIF run with rules, results, artifacts, and invocations.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifacts(run)
	m.addInvocation(run)
	m.addProperties(run)
}

func (m *sarifMapper) addRules(run *sarif.Run) {
	rules := []struct {
		id, name, desc, level string
	}{
		{RuleNewReference, "NewReference",
			"The addin references an API that the host application does not provide.", "error"},
		{RuleExpectedMissing, "ExpectedMissing",
			"A line from the saved ignore list was not reported by this scan.", "warning"},
		{RuleScanError, "ScanError",
			"The addin could not be scanned.", "error"},
	}
	for _, r := range rules {
		desc := r.desc
		rule := sarif.NewReportingDescriptor().WithID(r.id)
		rule.WithName(r.name)
		rule.WithShortDescription(&sarif.MultiformatMessageString{Text: ptrString(r.name)})
		rule.WithFullDescription(&sarif.MultiformatMessageString{Text: &desc})
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: r.level})
		run.Tool.Driver.AddRule(rule)
	}
}

func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, ar := range m.result.Addins {
		loc := m.createLocation(ar.Addin.Location)

		for _, line := range ar.Added {
			run.AddResult(m.lineResult(RuleNewReference, "error", line, ar, loc))
		}
		for _, line := range ar.Removed {
			run.AddResult(m.lineResult(RuleExpectedMissing, "warning", line, ar, loc))
		}

		if ar.Status == values.StatusError {
			msg := ar.Message
			if msg == "" {
				msg = "scan failed for " + ar.Addin.DisplayName()
			}
			result := sarif.NewRuleResult(RuleScanError)
			result.Level = "error"
			result.Kind = "fail"
			result.Message = sarif.NewTextMessage(msg)
			result.Locations = []*sarif.Location{loc}
			result.WithProperties(m.addinProperties(ar))
			run.AddResult(result)
		}
	}
}

func (m *sarifMapper) lineResult(ruleID, level, line string, ar execution.AddinResult, loc *sarif.Location) *sarif.Result {
	result := sarif.NewRuleResult(ruleID)
	result.Level = level
	result.Kind = "fail"
	result.Message = sarif.NewTextMessage(line)
	result.Locations = []*sarif.Location{loc}
	result.WithProperties(m.addinProperties(ar))
	return result
}

func (m *sarifMapper) addinProperties(ar execution.AddinResult) *sarif.PropertyBag {
	props := sarif.NewPropertyBag()
	props.Add("addinId", ar.Addin.ID)
	props.Add("addinVersion", ar.Addin.Version)
	props.Add("status", string(ar.Status))
	if ar.DiffFile != "" {
		props.Add("diffFile", ar.DiffFile)
	}
	return props
}

func (m *sarifMapper) createLocation(path string) *sarif.Location {
	uri := m.normalizeURI(path)
	if _, exists := m.artifacts[uri]; !exists {
		m.artifacts[uri] = sarif.NewArtifact().
			WithLocation(sarif.NewArtifactLocation().WithURI(uri))
	}

	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI(uri))
	return sarif.NewLocation().WithPhysicalLocation(pLoc)
}

// normalizeURI converts a file path to a SARIF-compliant URI.
func (m *sarifMapper) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return "file://" + filepath.ToSlash(abs)
}

func (m *sarifMapper) addArtifacts(run *sarif.Run) {
	for _, artifact := range m.artifacts {
		run.AddArtifact(artifact)
	}
}

// addInvocation adds execution metadata to the run.
func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()

	invocation.ExecutionSuccessful = ptrBool(m.result.Summary.ErrorAddins == 0 && m.result.BaselineError == "")

	startTime := m.result.StartTime.UTC().Format("2006-01-02T15:04:05.000Z")
	endTime := m.result.EndTime.UTC().Format("2006-01-02T15:04:05.000Z")
	invocation.StartTimeUtc = &startTime
	invocation.EndTimeUtc = &endTime

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}

	if m.cwd != "" {
		cwd := "file://" + filepath.ToSlash(m.cwd)
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI(cwd)
	}

	props := sarif.NewPropertyBag()
	props.Add("appDir", m.result.AppDir)
	props.Add("baseline", m.result.BaselineSource)
	props.Add("compareMode", m.result.Mode)
	props.Add("runId", m.result.RunID.String())
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}

func (m *sarifMapper) addProperties(run *sarif.Run) {
	props := sarif.NewPropertyBag()
	props.Add("summary", m.result.Summary)
	run.WithProperties(props)
}
