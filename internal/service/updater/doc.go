// Package updater keeps an installed prospector deployment in sync with the
// release manifest published in the update folder.
//
// The updater stops running prospector processes, compares the installed
// version and per-file checksums against prospector-version.yaml, downloads
// changed files into a temporary directory, applies them atomically and then
// restarts the executable for the configured role. A marker file prevents two
// updaters from running at the same time.
package updater
