package execution

// RunState is the orchestrator's position in a compatibility run.
type RunState string

const (
	StateIdle               RunState = "idle"
	StateGeneratingBaseline RunState = "generating_baseline"
	StateBaselineReady      RunState = "baseline_ready"
	StateBaselineFailed     RunState = "baseline_failed"
	StateCheckingAddin      RunState = "checking_addin"
	StateSummarizing        RunState = "summarizing"
	StateDone               RunState = "done"
)

// transitions lists the states reachable from each state.
var transitions = map[RunState][]RunState{
	StateIdle:               {StateGeneratingBaseline},
	StateGeneratingBaseline: {StateBaselineReady, StateBaselineFailed},
	StateBaselineReady:      {StateCheckingAddin, StateSummarizing},
	StateBaselineFailed:     {StateSummarizing, StateDone},
	StateCheckingAddin:      {StateCheckingAddin, StateSummarizing},
	StateSummarizing:        {StateDone},
}

// CanTransitionTo reports whether next is reachable from s.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the run has finished.
func (s RunState) IsTerminal() bool {
	return s == StateDone
}

func (s RunState) String() string {
	return string(s)
}
