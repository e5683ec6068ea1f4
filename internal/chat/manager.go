// ABOUTME: Manager orchestrates gateway, cache, and normalizer into session state
// ABOUTME: Optimistic sends and generation-guarded authoritative history loads

package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/aakashjammula/fluxora-cli/internal/gateway"
	"github.com/aakashjammula/fluxora-cli/internal/normalize"
)

// Gateway defines what the manager needs from the remote API.
type Gateway interface {
	ListThreads(ctx context.Context) ([]gateway.Thread, error)
	CreateThread(ctx context.Context) (string, error)
	DeleteThread(ctx context.Context, id string) error
	FetchMessages(ctx context.Context, threadID string) ([]gateway.RawMessage, error)
	SendMessage(ctx context.Context, content, threadID string) (*gateway.SendResult, error)
}

// HistoryCache defines what the manager needs from durable transcript
// storage. Implementations must fail open: Read reports absent on any
// storage problem, Write and Drop are best-effort.
type HistoryCache interface {
	Read(ctx context.Context, threadID string) ([]Message, bool)
	Write(ctx context.Context, threadID string, messages []Message)
	Drop(ctx context.Context, threadID string)
}

// Session is a point-in-time snapshot of the conversation state exposed to
// the presentation layer.
type Session struct {
	Threads        []gateway.Thread
	ActiveThreadID string
	Messages       []Message
	Streaming      bool
}

// Manager is the single writer of session state. It coordinates the remote
// gateway (authoritative), the local cache (warm start), and optimistic
// local edits.
type Manager struct {
	gw     Gateway
	cache  HistoryCache
	logout func()
	logger *slog.Logger

	mu             sync.Mutex
	threads        []gateway.Thread
	activeThreadID string
	messages       []Message
	streaming      bool

	// generation increments on every active-thread change. In-flight loads
	// capture it at start and discard their results if it moved, so a slow
	// fetch for a previous thread can never clobber the current one.
	generation uint64
}

// NewManager creates a Manager. logout is invoked whenever a remote call is
// rejected as unauthorized; it may be nil.
func NewManager(gw Gateway, cache HistoryCache, logout func(), logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NoCache{}
	}
	return &Manager{
		gw:     gw,
		cache:  cache,
		logout: logout,
		logger: logger.With("component", "chat"),
	}
}

// Session returns a copy of the current session state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		Threads:        slices.Clone(m.threads),
		ActiveThreadID: m.activeThreadID,
		Messages:       slices.Clone(m.messages),
		Streaming:      m.streaming,
	}
}

// RefreshThreads replaces the thread list wholesale from the server. The
// remote list is authoritative for membership, titles, and order; there is
// no incremental merge.
func (m *Manager) RefreshThreads(ctx context.Context) error {
	threads, err := m.gw.ListThreads(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrNoCredential) {
			return nil
		}
		if errors.Is(err, gateway.ErrUnauthorized) {
			m.handleUnauthorized()
			return err
		}
		m.logger.Warn("thread list refresh failed", "error", err)
		return err
	}

	m.mu.Lock()
	m.threads = threads
	m.mu.Unlock()
	return nil
}

// NewThread creates a thread on the server, refreshes the list to pick up
// the server-assigned title and timestamp, and makes it active. Returns the
// new thread id, or "" on failure.
func (m *Manager) NewThread(ctx context.Context) (string, error) {
	id, err := m.gw.CreateThread(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrNoCredential) {
			return "", nil
		}
		if errors.Is(err, gateway.ErrUnauthorized) {
			m.handleUnauthorized()
			return "", err
		}
		m.logger.Warn("thread creation failed", "error", err)
		return "", err
	}

	if err := m.RefreshThreads(ctx); err != nil {
		return "", err
	}
	if err := m.LoadHistory(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

// RemoveThread deletes a thread. The remote call is fire-and-forget: a
// network failure is logged and local cleanup proceeds anyway, so the UI
// stays responsive. Only an auth rejection aborts. If the removed thread
// was active, the active thread and transcript are cleared.
func (m *Manager) RemoveThread(ctx context.Context, id string) error {
	if err := m.gw.DeleteThread(ctx, id); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			m.handleUnauthorized()
			return err
		}
		if !errors.Is(err, gateway.ErrNoCredential) {
			m.logger.Warn("remote thread delete failed, removing locally anyway",
				"thread_id", id, "error", err)
		}
	}

	m.mu.Lock()
	m.threads = slices.DeleteFunc(m.threads, func(t gateway.Thread) bool {
		return t.ThreadID == id
	})
	if m.activeThreadID == id {
		m.activeThreadID = ""
		m.messages = nil
		m.generation++
	}
	m.mu.Unlock()

	m.cache.Drop(ctx, id)
	return nil
}

// LoadHistory makes id the active thread and reconciles its transcript in
// two phases: the cached snapshot is installed immediately for instant
// feedback, then the server's transcript unconditionally replaces both
// memory and cache - even when empty - so the cache never drifts from
// server truth. On a network failure the cached transcript stays in place.
func (m *Manager) LoadHistory(ctx context.Context, id string) error {
	m.mu.Lock()
	m.activeThreadID = id
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	// Optimistic phase: cached snapshot, or an empty transcript. This
	// completes before the authoritative fetch is issued.
	cached, ok := m.cache.Read(ctx, id)
	if !ok {
		cached = nil
	}
	m.mu.Lock()
	if m.generation == gen {
		m.messages = cached
	}
	m.mu.Unlock()

	// Authoritative phase.
	records, err := m.gw.FetchMessages(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNoCredential) {
			return nil
		}
		if errors.Is(err, gateway.ErrUnauthorized) {
			m.handleUnauthorized()
			return err
		}
		m.logger.Warn("history fetch failed, keeping cached transcript",
			"thread_id", id, "error", err)
		return err
	}

	processed := processRecords(records)

	m.mu.Lock()
	if m.generation != gen {
		// The active thread moved while the fetch was in flight. Committing
		// now would show this thread's transcript under another thread.
		m.mu.Unlock()
		m.logger.Debug("discarding stale history load", "thread_id", id)
		return nil
	}
	m.messages = processed
	m.mu.Unlock()

	m.cache.Write(ctx, id, processed)
	return nil
}

// Send performs an optimistic send. The user's message is appended to the
// transcript before any network call, so input is reflected with zero
// latency and survives a failed send. threadID may be empty: the active
// thread is used, or - for a brand-new conversation - the server assigns
// one, which then becomes active.
//
// On success the thread list and the full transcript are re-fetched rather
// than appending just the reply: the backend may insert tool-call turns
// between the user message and the final answer, and only a full
// reconciliation preserves the server's ordering.
func (m *Manager) Send(ctx context.Context, text, threadID string) error {
	local := Message{ID: newLocalID(), Type: MessageHuman, Content: text}

	m.mu.Lock()
	if threadID == "" {
		threadID = m.activeThreadID
	}
	m.messages = append(m.messages, local)
	m.streaming = true
	gen := m.generation
	m.mu.Unlock()
	defer m.setStreaming(false)

	m.persistIfActive(ctx, threadID, gen)

	result, err := m.gw.SendMessage(ctx, text, threadID)
	if err != nil {
		if errors.Is(err, gateway.ErrNoCredential) {
			return err
		}
		if errors.Is(err, gateway.ErrUnauthorized) {
			m.handleUnauthorized()
			return err
		}
		m.logger.Warn("send failed, optimistic message kept",
			"thread_id", threadID, "error", err)
		return err
	}

	response := normalize.NormalizeJSON(result.Content)
	m.logger.Debug("message sent",
		"thread_id", result.ThreadID, "response_len", len(response))

	if err := m.RefreshThreads(ctx); err != nil {
		return err
	}

	// Reconcile against the authoritative transcript, unless the user has
	// switched threads while the send was in flight.
	m.mu.Lock()
	current := m.generation == gen
	m.mu.Unlock()
	reloadID := result.ThreadID
	if reloadID == "" {
		reloadID = threadID
	}
	if current && reloadID != "" {
		return m.LoadHistory(ctx, reloadID)
	}
	return nil
}

// setStreaming updates the streaming indicator.
func (m *Manager) setStreaming(v bool) {
	m.mu.Lock()
	m.streaming = v
	m.mu.Unlock()
}

// persistIfActive writes the current transcript to the cache, but only when
// the given thread is still the active one at the captured generation. A
// stale in-flight write landing after a thread switch is discarded.
func (m *Manager) persistIfActive(ctx context.Context, threadID string, gen uint64) {
	if threadID == "" {
		return
	}
	m.mu.Lock()
	if m.activeThreadID != threadID || m.generation != gen {
		m.mu.Unlock()
		return
	}
	snapshot := slices.Clone(m.messages)
	m.mu.Unlock()

	m.cache.Write(ctx, threadID, snapshot)
}

// handleUnauthorized invokes the external logout collaborator. The
// triggering operation aborts; the collaborator owns credential cleanup.
func (m *Manager) handleUnauthorized() {
	m.logger.Warn("remote call rejected as unauthorized, logging out")
	if m.logout != nil {
		m.logout()
	}
}
