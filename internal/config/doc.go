// Package config defines shared settings used by the prospector binaries
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the API base URL, the update folder URL, the agent
// schedule and the report directory. Validation combines defaulting with
// struct-tag checks via go-playground/validator.
package config
