package watch

import (
	"github.com/reglet-dev/addin-compat/internal/domain/entities"
	"github.com/reglet-dev/addin-compat/internal/domain/execution"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
)

// StatusChange is an addin whose status differs between two runs.
type StatusChange struct {
	Addin entities.Addin
	// Previous is empty for addins the earlier run did not check.
	Previous values.Status
	Current  values.Status
}

// CompareRuns lists the addins of curr whose status changed since prev.
// A nil prev yields no changes.
func CompareRuns(prev, curr *execution.RunResult) []StatusChange {
	if prev == nil || curr == nil {
		return nil
	}

	var changes []StatusChange
	for _, ar := range curr.Addins {
		before := prev.GetAddinResult(ar.Addin.LocalID())
		if before != nil && before.Status == ar.Status {
			continue
		}
		change := StatusChange{Addin: ar.Addin, Current: ar.Status}
		if before != nil {
			change.Previous = before.Status
		}
		changes = append(changes, change)
	}
	return changes
}
