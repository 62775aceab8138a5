// Package api implements the JSON-over-HTTP client for the prospector
// service: credential login, token refresh and device profile submission.
//
// Transient transport failures are retried with jittered exponential
// backoff; a 401 maps to ErrUnauthorized so callers can refresh the access
// token and retry once.
package api
