// ABOUTME: Message model and raw-record processing for the sync core
// ABOUTME: Derives message type from loose role fields and filters unrenderable noise

package chat

import (
	"github.com/google/uuid"

	"github.com/aakashjammula/fluxora-cli/internal/gateway"
	"github.com/aakashjammula/fluxora-cli/internal/normalize"
)

// MessageType classifies who produced a message.
type MessageType string

// Message types
const (
	MessageHuman MessageType = "human"
	MessageAI    MessageType = "ai"
	MessageTool  MessageType = "tool"
)

// Message is one immutable turn of a conversation, content already
// normalized to plain text.
type Message struct {
	ID      string      `json:"id"`
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// newLocalID generates an id for an optimistically appended message. The
// prefix keeps local ids recognizable next to server-assigned ones.
func newLocalID() string {
	return "local-" + uuid.New().String()
}

// messageType derives the message type from a lowercased role key.
func messageType(role string) MessageType {
	switch role {
	case "human", "user", "humanmessage":
		return MessageHuman
	case "tool", "toolmessage":
		return MessageTool
	default:
		return MessageAI
	}
}

// processRecords converts raw server records into display messages.
//
// A record is kept if it is a tool-role record, carries tool-call metadata,
// or has non-empty normalized content; everything else is noise that would
// render as a blank bubble. Tool-call records with empty content get a
// fenced-JSON rendering of the payload instead.
func processRecords(records []gateway.RawMessage) []Message {
	out := make([]Message, 0, len(records))
	for i := range records {
		rec := &records[i]

		role := rec.RoleKey()
		msgType := messageType(role)
		toolCalls := rec.ToolCallPayload()
		content := normalize.NormalizeJSON(rec.RawContent())

		if msgType != MessageTool && toolCalls == nil && content == "" {
			continue
		}

		if content == "" && toolCalls != nil {
			content = normalize.ToolCallBlock(toolCalls)
		}

		id := rec.MessageID()
		if id == "" {
			id = newLocalID()
		}

		out = append(out, Message{ID: id, Type: msgType, Content: content})
	}
	return out
}
