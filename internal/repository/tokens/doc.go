// Package tokens persists the API bearer tokens.
//
// The primary backend is the OS credential manager under the
// "ProspectorService" entry; hosts without a working credential manager
// (headless Linux, CI) fall back to an owner-only YAML file in the report
// directory.
package tokens
