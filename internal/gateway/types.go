// ABOUTME: Wire types for the Fluxora chat API
// ABOUTME: Raw message records keep loosely-shaped fields for later normalization

package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Thread is a server-tracked conversation.
type Thread struct {
	ThreadID  string `json:"thread_id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at"`
}

// RawMessage is a message record exactly as the backend returns it. The
// backend has shipped several field spellings for the same concepts, so the
// role lives in one of three fields and the content in one of three more.
// Content and tool-call payloads stay raw JSON until normalization.
type RawMessage struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Role      string          `json:"role,omitempty"`
	Type      string          `json:"type,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Text      json.RawMessage `json:"text,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`

	AdditionalKwargs struct {
		ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
	} `json:"additional_kwargs,omitempty"`
}

// RoleKey returns the lowercased role from the first populated role-ish
// field (role, type, sender).
func (m *RawMessage) RoleKey() string {
	for _, v := range []string{m.Role, m.Type, m.Sender} {
		if v != "" {
			return strings.ToLower(v)
		}
	}
	return ""
}

// RawContent returns the first populated content-ish field (content,
// message, text), or nil if the record carries none.
func (m *RawMessage) RawContent() json.RawMessage {
	for _, v := range []json.RawMessage{m.Content, m.Message, m.Text} {
		if rawPresent(v) {
			return v
		}
	}
	return nil
}

// ToolCallPayload returns the tool-call metadata from either its top-level
// field or additional_kwargs, or nil when the record has none.
func (m *RawMessage) ToolCallPayload() json.RawMessage {
	if rawPresent(m.ToolCalls) {
		return m.ToolCalls
	}
	if rawPresent(m.AdditionalKwargs.ToolCalls) {
		return m.AdditionalKwargs.ToolCalls
	}
	return nil
}

// MessageID returns the record id as a string. Ids have been observed both
// as JSON strings and as numbers. Returns "" when the record has no id.
func (m *RawMessage) MessageID() string {
	raw := bytes.TrimSpace(m.ID)
	if !rawPresent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// SendResult is the outcome of POST /chat.
type SendResult struct {
	// ThreadID is the conversation the message landed in. For the first
	// message of a new conversation the server assigns and returns it.
	ThreadID string
	// Content is the raw assistant response payload, not yet normalized.
	Content json.RawMessage
}

// rawPresent reports whether a raw JSON field is set to something other
// than null.
func rawPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
