// Package version holds the build's version information.
package version

import (
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X archgraph/internal/version.Version=1.0.0 -X archgraph/internal/version.Commit=abc123"
var (
	// Version is the semantic version of archgraph
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// BuildInfo is the machine-readable form of the version
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Release   bool   `json:"release"`
}

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "archgraph version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// Get returns the version as a struct
func Get() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Release:   IsRelease(Version),
	}
}

// IsRelease reports whether v is a valid semantic version without a
// prerelease suffix. A leading "v" is optional.
func IsRelease(v string) bool {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v) && semver.Prerelease(v) == "" && semver.Build(v) == ""
}

// Compare orders two versions the way semver does. Invalid versions sort
// before valid ones.
func Compare(a, b string) int {
	if !strings.HasPrefix(a, "v") {
		a = "v" + a
	}
	if !strings.HasPrefix(b, "v") {
		b = "v" + b
	}
	return semver.Compare(a, b)
}
