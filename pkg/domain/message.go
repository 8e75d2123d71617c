package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry of a conversation.
// Messages are immutable once appended to a State.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are set on tool messages and link the result to its request.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasToolCalls reports whether the message asks the host to run tools.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUserMessage creates a message authored by the operator.
func NewUserMessage(content string) Message {
	return newMessage(RoleUser, content)
}

// NewSystemMessage creates a system prompt message.
func NewSystemMessage(content string) Message {
	return newMessage(RoleSystem, content)
}

// NewAssistantMessage creates a model reply, optionally carrying tool call requests.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	m := newMessage(RoleAssistant, content)
	if len(calls) > 0 {
		m.ToolCalls = calls
	}
	return m
}

// NewToolMessage creates the message that reports a tool result back to the model.
func NewToolMessage(call ToolCall, content string) Message {
	m := newMessage(RoleTool, content)
	m.ToolCallID = call.ID
	m.Name = call.Name
	return m
}
