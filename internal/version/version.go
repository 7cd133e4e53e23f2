// Package version provides build version information for addin-compat.
package version

import (
	"fmt"
	"runtime"
)

// Name is the tool name reported in output formats.
const Name = "addin-compat"

var (
	// Version is the semantic version (set by build flags)
	Version = "dev"
	// Commit is the git commit hash (set by build flags)
	Commit = "unknown"
	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"
)

// Info contains version and build information
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the version information
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the bare version
func (i Info) String() string {
	return i.Version
}

// Full returns "<name> <version> (<commit>) built <date> <go> <platform>".
func (i Info) Full() string {
	return fmt.Sprintf("%s %s (%s) built %s %s %s",
		Name, i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
