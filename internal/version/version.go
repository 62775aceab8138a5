package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "1.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string. This is the value
// published in the release manifest.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
// The "version: ..." prefix is part of the updater contract: installed
// binaries are probed with `<exe> version` and this line is parsed back.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
