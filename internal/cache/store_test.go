// ABOUTME: Tests for the SQLite transcript cache
// ABOUTME: Validates round-trips, overwrite, drop, and fail-open behavior on bad data

package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aakashjammula/fluxora-cli/internal/chat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	messages, ok := store.Read(context.Background(), "never-written")
	assert.False(t, ok)
	assert.Nil(t, messages)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := []chat.Message{
		{ID: "m1", Type: chat.MessageHuman, Content: "hello"},
		{ID: "m2", Type: chat.MessageAI, Content: "hi\nthere"},
		{ID: "m3", Type: chat.MessageTool, Content: "**System: Tool Usage**"},
	}
	store.Write(ctx, "t1", in)

	out, ok := store.Read(ctx, "t1")
	require.True(t, ok)
	assert.Equal(t, in, out, "order and content must survive the round trip")
}

func TestStore_WriteReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Write(ctx, "t1", []chat.Message{{ID: "old", Type: chat.MessageHuman, Content: "old"}})
	store.Write(ctx, "t1", []chat.Message{{ID: "new", Type: chat.MessageAI, Content: "new"}})

	out, ok := store.Read(ctx, "t1")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].ID)
}

func TestStore_WriteEmptyTranscript(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Write(ctx, "t1", []chat.Message{{ID: "m1", Type: chat.MessageHuman, Content: "x"}})
	store.Write(ctx, "t1", []chat.Message{})

	out, ok := store.Read(ctx, "t1")
	require.True(t, ok)
	assert.Empty(t, out, "an empty server transcript must overwrite the cache")
}

func TestStore_EntriesArePartitionedByThread(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Write(ctx, "a", []chat.Message{{ID: "ma", Type: chat.MessageHuman, Content: "for a"}})
	store.Write(ctx, "b", []chat.Message{{ID: "mb", Type: chat.MessageHuman, Content: "for b"}})

	outA, ok := store.Read(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "ma", outA[0].ID)

	outB, ok := store.Read(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "mb", outB[0].ID)
}

func TestStore_Drop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Write(ctx, "t1", []chat.Message{{ID: "m1", Type: chat.MessageHuman, Content: "x"}})
	store.Drop(ctx, "t1")

	_, ok := store.Read(ctx, "t1")
	assert.False(t, ok)

	// Dropping again is harmless.
	store.Drop(ctx, "t1")
}

func TestStore_CorruptEntryFailsOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO transcripts (thread_id, messages, updated_at) VALUES (?, ?, ?)",
		"bad", "{not json", time.Now().UTC())
	require.NoError(t, err)

	messages, ok := store.Read(ctx, "bad")
	assert.False(t, ok, "a corrupt entry must read as absent, not error")
	assert.Nil(t, messages)
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	store.Write(context.Background(), "t1", nil)
	_, ok := store.Read(context.Background(), "t1")
	assert.True(t, ok)
}
