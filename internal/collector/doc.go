// Package collector gathers device profiles from the local machine.
//
// Sections are backed by system commands (wmic, netsh, systeminfo) whose
// output is parsed by pure functions, so parsing is testable on any
// platform. A section that cannot be collected degrades to an empty value
// with a warning rather than failing the whole profile.
package collector
