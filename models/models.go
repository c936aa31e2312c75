package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMissingQuery is returned when a search expansion requires a query string and none is present
var ErrMissingQuery = errors.New("query string is required for search requests")

// ErrUnknownTool is returned when the model requests a tool outside the fixed schema
var ErrUnknownTool = errors.New("unknown tool")

// ErrSessionNotFound is returned when a session id has no stored conversation
var ErrSessionNotFound = errors.New("session not found")

// Stop signals returned with a model turn
const (
	StopReasonToolUse = "tool_use"
	StopReasonEndTurn = "end_turn"
)

// Content block types within a conversation turn
const (
	ContentTypeText       = "text"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content is a single block of a conversation turn: plain text, a tool
// invocation requested by the model, or the result of executing one.
type Content struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`          // call identifier on tool_use blocks
	Name      string          `json:"name,omitempty"`        // tool name on tool_use blocks
	Input     json.RawMessage `json:"input,omitempty"`       // structured tool input
	ToolUseID string          `json:"tool_use_id,omitempty"` // correlates a tool_result to its call
	Content   string          `json:"content,omitempty"`     // serialized tool result
}

// Message is one turn in a conversation.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// TextMessage builds a single-block text turn.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// Text concatenates all text blocks of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Type == ContentTypeText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// ToolUses returns the tool invocation blocks of the message, in order.
func (m Message) ToolUses() []Content {
	var out []Content
	for _, c := range m.Content {
		if c.Type == ContentTypeToolUse {
			out = append(out, c)
		}
	}
	return out
}

// Tool describes one named operation the model may invoke.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Turn is one model response: an assistant message plus the stop signal that
// tells the dispatch loop whether tools were requested.
type Turn struct {
	StopReason string
	Message    Message
}
