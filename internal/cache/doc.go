// Package cache persists per-thread message transcripts in SQLite for warm
// starts. Entries are never required for correctness: reads fail open,
// writes are best-effort, and losing the whole database only costs an extra
// remote round trip.
package cache
