// Package builder reproduces the prospector packaging pipeline.
//
// A run verifies the bundler spec file is present in the working directory,
// makes the pinned UPX release available (downloading and unpacking it only
// when its directory is absent, with an optional SHA-256 pin), removes the
// stale build and dist directories, invokes the bundler with the spec file
// and the UPX directory, and deletes the UPX directory afterwards.
//
// Failures of the external tools are wrapped and returned, not retried.
package builder
