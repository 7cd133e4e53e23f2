// Package execution provides domain models for compatibility run results.
package execution

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// Summary messages written at the end of a run.
const (
	MessageAllCompatible = "All extensions are compatible"
	MessageChecksFailed  = "Failed to run compatibility checks"
	MessageRunCancelled  = "Compatibility checks were cancelled before all extensions were checked"
)

// RunResult represents the complete result of checking a set of addins against a host app.
type RunResult struct {
	StartTime      time.Time     `json:"start_time" yaml:"start_time"`
	EndTime        time.Time     `json:"end_time" yaml:"end_time"`
	AppDir         string        `json:"app_dir" yaml:"app_dir"`
	BaselineSource string        `json:"baseline_source" yaml:"baseline_source"`
	BaselineError  string        `json:"baseline_error,omitempty" yaml:"baseline_error,omitempty"`
	Mode           string        `json:"compare_mode" yaml:"compare_mode"`
	Status         values.Status `json:"status" yaml:"status"`
	State          RunState      `json:"state" yaml:"state"`
	Addins         []AddinResult `json:"addins" yaml:"addins"`
	Summary        ResultSummary `json:"summary" yaml:"summary"`
	Duration       time.Duration `json:"duration_ms" yaml:"duration_ms"`
	RunID          values.RunID  `json:"run_id" yaml:"run_id"`
	Cancelled      bool          `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	mu             sync.Mutex
}

// AddinResult represents the result of checking a single addin.
type AddinResult struct {
	Addin    entities.Addin `json:"addin" yaml:"addin"`
	Status   values.Status  `json:"status" yaml:"status"`
	Message  string         `json:"message,omitempty" yaml:"message,omitempty"`
	Added    []string       `json:"added,omitempty" yaml:"added,omitempty"`
	Removed  []string       `json:"removed,omitempty" yaml:"removed,omitempty"`
	DiffFile string         `json:"diff_file,omitempty" yaml:"diff_file,omitempty"`
	Index    int            `json:"index" yaml:"index"`
	Duration time.Duration  `json:"duration_ms" yaml:"duration_ms"`
}

// ResultSummary provides aggregate statistics about the run.
type ResultSummary struct {
	TotalAddins   int    `json:"total_addins" yaml:"total_addins"`
	PassedAddins  int    `json:"passed_addins" yaml:"passed_addins"`
	FailedAddins  int    `json:"failed_addins" yaml:"failed_addins"`
	ErrorAddins   int    `json:"error_addins" yaml:"error_addins"`
	SkippedAddins int    `json:"skipped_addins" yaml:"skipped_addins"`
	AddedLines    int    `json:"added_lines" yaml:"added_lines"`
	RemovedLines  int    `json:"removed_lines" yaml:"removed_lines"`
	Message       string `json:"message" yaml:"message"`
}

// NewRunResult creates a new run result in the Idle state.
func NewRunResult(appDir string) *RunResult {
	return NewRunResultWithID(values.NewRunID(), appDir)
}

// NewRunResultWithID creates a new run result with a specific ID.
func NewRunResultWithID(id values.RunID, appDir string) *RunResult {
	return &RunResult{
		RunID:     id,
		AppDir:    appDir,
		StartTime: time.Now(),
		State:     StateIdle,
		Addins:    make([]AddinResult, 0),
	}
}

// Transition moves the run to the next state.
func (r *RunResult) Transition(next RunState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.State.CanTransitionTo(next) {
		return fmt.Errorf("invalid run state transition %s -> %s", r.State, next)
	}
	r.State = next
	return nil
}

// CurrentState returns the run state.
// Thread-safe.
func (r *RunResult) CurrentState() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.State
}

// AddAddinResult records the outcome of one addin.
// Thread-safe.
func (r *RunResult) AddAddinResult(ar AddinResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Addins = append(r.Addins, ar)
}

// GetAddinResult returns the result recorded for an addin identity, or nil.
// Thread-safe.
func (r *RunResult) GetAddinResult(localID string) *AddinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.Addins {
		if r.Addins[i].Addin.LocalID() == localID {
			return &r.Addins[i]
		}
	}
	return nil
}

// Statuses returns the per-addin statuses in check order.
func (r *RunResult) Statuses() []values.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]values.Status, len(r.Addins))
	for i, a := range r.Addins {
		out[i] = a.Status
	}
	return out
}

// Incompatible returns the addins that failed the compatibility check.
func (r *RunResult) Incompatible() []entities.Addin {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entities.Addin
	for _, a := range r.Addins {
		if a.Status == values.StatusFail {
			out = append(out, a.Addin)
		}
	}
	return out
}

// MarkCancelled records that the run stopped before checking every addin.
func (r *RunResult) MarkCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cancelled = true
}

// Finalize completes the run result, computes the summary and sets the run status.
func (r *RunResult) Finalize(status values.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Status = status
	r.calculateSummary()
}

// calculateSummary computes summary statistics from addin results.
func (r *RunResult) calculateSummary() {
	r.Summary = ResultSummary{
		TotalAddins: len(r.Addins),
	}

	var incompatible []entities.Addin
	for _, a := range r.Addins {
		switch a.Status {
		case values.StatusPass:
			r.Summary.PassedAddins++
		case values.StatusFail:
			r.Summary.FailedAddins++
			incompatible = append(incompatible, a.Addin)
		case values.StatusError:
			r.Summary.ErrorAddins++
		case values.StatusSkipped:
			r.Summary.SkippedAddins++
		}
		r.Summary.AddedLines += len(a.Added)
		r.Summary.RemovedLines += len(a.Removed)
	}

	hadErrors := r.Summary.ErrorAddins > 0 || r.BaselineError != ""
	r.Summary.Message = SummaryMessage(incompatible, hadErrors, r.Cancelled)
}

// SummaryMessage builds the human-readable end-of-run summary.
// Incompatible addins are listed first, then cancellation, then errors; otherwise success.
func SummaryMessage(incompatible []entities.Addin, hadErrors, cancelled bool) string {
	if len(incompatible) > 0 {
		return IncompatibleSummary(incompatible)
	}
	if cancelled {
		return MessageRunCancelled
	}
	if hadErrors {
		return MessageChecksFailed
	}
	return MessageAllCompatible
}

// IncompatibleSummary lists the incompatible addins, one indented line each.
func IncompatibleSummary(addins []entities.Addin) string {
	var sb strings.Builder
	if len(addins) == 1 {
		sb.WriteString("1 extension is not compatible:")
	} else {
		fmt.Fprintf(&sb, "%d extensions are not compatible:", len(addins))
	}
	for _, a := range addins {
		sb.WriteString("\n    ")
		sb.WriteString(a.DisplayName())
	}
	return sb.String()
}
