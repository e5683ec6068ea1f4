// Package chat is the conversation synchronization core.
//
// # Overview
//
// Manager owns the in-memory session state (thread list, active thread,
// message transcript, streaming flag) and keeps it consistent across three
// inputs: the remote backend (authoritative), a durable local transcript
// cache (warm-start only), and optimistic local edits. All mutation goes
// through Manager methods; consumers read state through Session snapshots.
//
// # Reconciliation protocol
//
// Switching threads is a two-phase load: the cached transcript is installed
// immediately, then the authoritative fetch unconditionally replaces both
// memory and cache - unless the active thread moved while the fetch was in
// flight, in which case the result is discarded (generation guard).
//
// Sends are optimistic: the user's message is appended before any network
// traffic, and the server transcript is re-fetched afterwards because the
// backend may interleave tool-call turns that a simple append would miss.
//
// # Failure semantics
//
// An unauthorized response from any remote call invokes the logout
// collaborator and aborts the operation. Any other remote failure is
// reported once and leaves prior state untouched; cache failures never
// surface at all.
package chat
