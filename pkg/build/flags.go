// SPDX-License-Identifier: MIT
//
// Package build carries build metadata injected through linker flags,
// for example:
//
//	go build -ldflags "-X iqspect/pkg/build.buildVersion=0.3.0 \
//	                   -X iqspect/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds without ldflags fall back to the defaults below so
// plain `go run .` keeps working.
package build

// Description is the one-line summary shown by the CLI help output.
const Description = "Multi-threaded overlapped STFT and energy binning for radio I/Q streams"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "iqspect",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any build information provided via ldflags into the
// buildFlags struct. Fields left empty keep their development defaults.
// Call early in program startup, before the CLI reads version info.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information. Safe to call at
// any time; before Initialize it reports the development defaults.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
