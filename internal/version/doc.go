// Package version exposes build metadata for the prospector binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. Short feeds
// the release manifest; Full renders the `version` subcommand output the
// updater parses when detecting the installed version.
package version
