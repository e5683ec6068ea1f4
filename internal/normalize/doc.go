// Package normalize converts the backend's message content payloads into
// displayable plain text.
//
// The Fluxora backend returns message content in several incompatible shapes:
// plain strings, arrays of typed content blocks, JSON-stringified arrays,
// tool-call objects, and occasionally truncated near-JSON. Normalize is total
// over all of them: unparseable input degrades to literal text, it never
// returns an error and never panics.
package normalize
