// ABOUTME: No-op HistoryCache for running without durable storage
// ABOUTME: Used when the cache database cannot be opened; correctness is unaffected

package chat

import "context"

// NoCache is a HistoryCache that stores nothing. Losing the cache only
// costs a warm start, never correctness, so this is a valid degradation.
type NoCache struct{}

func (NoCache) Read(ctx context.Context, threadID string) ([]Message, bool) {
	return nil, false
}

func (NoCache) Write(ctx context.Context, threadID string, messages []Message) {}

func (NoCache) Drop(ctx context.Context, threadID string) {}
