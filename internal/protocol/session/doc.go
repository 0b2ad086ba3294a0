// Package session owns retry and transport policy for remote channel calls.
//
// Ownership boundary:
// - per-request timeout and attempt limits
// - retry/backoff primitives
// - TLS/mTLS requirements per security mode
//
// The link core never retries; only channel adapters consult this package.
package session
