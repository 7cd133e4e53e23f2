package values

// ScanOptions are the scanner flags for one scan.
// They are passed by value with every scan request rather than held globally.
type ScanOptions struct {
	ReportIntPtrConstructors   bool `json:"report_intptr_constructors" yaml:"report_intptr_constructors"`
	ReportVersionMismatch      bool `json:"report_version_mismatch" yaml:"report_version_mismatch"`
	ReportEmbeddedInteropTypes bool `json:"report_embedded_interop_types" yaml:"report_embedded_interop_types"`
}

// DefaultScanOptions returns the flags used when nothing else is configured.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{ReportIntPtrConstructors: true}
}

// Args renders the options as engine command-line switches.
func (o ScanOptions) Args() []string {
	var args []string
	if o.ReportIntPtrConstructors {
		args = append(args, "--report-intptr-constructors")
	}
	if o.ReportVersionMismatch {
		args = append(args, "--report-version-mismatch")
	}
	if o.ReportEmbeddedInteropTypes {
		args = append(args, "--report-embedded-interop-types")
	}
	return args
}
