package values

// Status is the outcome of checking one addin against the host baseline.
type Status string

const (
	// StatusPass means the addin report matched the baseline.
	StatusPass Status = "pass"
	// StatusFail means the addin introduced new compatibility problems.
	StatusFail Status = "fail"
	// StatusError means the addin could not be checked, e.g. the scan child crashed.
	StatusError Status = "error"
	// StatusSkipped means the addin was never started because the run was cancelled.
	StatusSkipped Status = "skipped"
)

// BlocksGate reports whether an addin with this status must fail the gate.
// An addin that could not be checked blocks just like an incompatible one.
func (s Status) BlocksGate() bool {
	return s == StatusFail || s == StatusError
}

// Checked reports whether a check actually ran for the addin.
func (s Status) Checked() bool {
	return s != StatusSkipped
}
