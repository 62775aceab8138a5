// Package profile contains the device profile domain types.
//
// A Profile is a point-in-time snapshot of a device: hardware inventory,
// operating system details, network interfaces and installed software.
// JSON field names match the payload accepted by the prospector API.
package profile
