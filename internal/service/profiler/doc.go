// Package profiler drives the device profiling workflow: it gathers a full
// hardware and software inventory through the collector, writes a JSON report
// under the configured report directory and, when requested, submits the
// profile to the prospector API with the stored credentials. Expired access
// tokens are refreshed transparently once per submission.
//
// The package also owns the interactive login and logout flows that manage
// the persisted token pair.
package profiler
