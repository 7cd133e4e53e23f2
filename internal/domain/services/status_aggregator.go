// Package services contains domain services that encapsulate compatibility
// logic spanning multiple entities. These services are stateless and can be
// called from the orchestrator, the checkers or the console flow.
package services

import (
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// StatusAggregator folds per-addin statuses into a run status.
type StatusAggregator struct{}

// NewStatusAggregator creates a new status aggregator service.
func NewStatusAggregator() *StatusAggregator {
	return &StatusAggregator{}
}

// AggregateRunStatus determines the run status from per-addin statuses.
//
// Precedence: Fail > Error > Pass. A proven incompatibility is more important
// than a technical error, so one failing addin makes the whole run fail even
// if others errored. An empty or all-skipped run is skipped.
func (s *StatusAggregator) AggregateRunStatus(statuses []values.Status) values.Status {
	if len(statuses) == 0 {
		return values.StatusSkipped
	}

	hasFailure, hasError, hasPass := false, false, false
	for _, status := range statuses {
		if !status.Checked() {
			continue
		}
		switch status {
		case values.StatusFail:
			hasFailure = true
		case values.StatusError:
			hasError = true
		case values.StatusPass:
			hasPass = true
		}
	}

	switch {
	case hasFailure:
		return values.StatusFail
	case hasError:
		return values.StatusError
	case hasPass:
		return values.StatusPass
	default:
		return values.StatusSkipped
	}
}

// ExitCode maps a run status to the process exit code.
// Errors count as failures: a run that could not check an addin must not pass a gate.
func (s *StatusAggregator) ExitCode(status values.Status) int {
	if status.BlocksGate() {
		return 1
	}
	return 0
}
