// Package agent runs the profiling workflow on a schedule. It collects and
// submits a device profile immediately on startup and then on the cron
// expression from the settings, skipping ticks while a previous collection
// is still in flight. Only one agent instance may run per machine.
package agent
