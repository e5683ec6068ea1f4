// ABOUTME: SQLite-backed transcript cache keyed by thread id
// ABOUTME: Fail-open reads and best-effort writes; one JSON blob per thread

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aakashjammula/fluxora-cli/internal/chat"
)

// Store implements chat.HistoryCache on a local SQLite database. Each
// thread's transcript is one JSON-serialized row, so a write is atomic at
// the thread-id granularity.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the cache database at the given path. Parent
// directories are created if needed and the schema is created on open.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "cache")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// WAL keeps a reader from blocking the write-back path
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS transcripts (
			thread_id TEXT PRIMARY KEY,
			messages TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("transcript cache opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Read returns the cached transcript for a thread. It fails open: any
// storage or decode problem is logged and reported as absent, never
// propagated.
func (s *Store) Read(ctx context.Context, threadID string) ([]chat.Message, bool) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT messages FROM transcripts WHERE thread_id = ?", threadID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache read failed", "thread_id", threadID, "error", err)
		return nil, false
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(blob), &messages); err != nil {
		s.logger.Warn("cache entry undecodable, ignoring", "thread_id", threadID, "error", err)
		return nil, false
	}
	return messages, true
}

// Write stores a transcript, replacing any previous entry for the thread.
// Best-effort: failures are logged, the in-memory state stays the source of
// truth for the session.
func (s *Store) Write(ctx context.Context, threadID string, messages []chat.Message) {
	blob, err := json.Marshal(messages)
	if err != nil {
		s.logger.Warn("cache encode failed", "thread_id", threadID, "error", err)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (thread_id, messages, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			messages = excluded.messages,
			updated_at = excluded.updated_at
	`, threadID, string(blob), time.Now().UTC())
	if err != nil {
		s.logger.Warn("cache write failed", "thread_id", threadID, "error", err)
	}
}

// Drop removes a thread's cache entry. Best-effort.
func (s *Store) Drop(ctx context.Context, threadID string) {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM transcripts WHERE thread_id = ?", threadID); err != nil {
		s.logger.Warn("cache drop failed", "thread_id", threadID, "error", err)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
