package engine

import "fmt"

// Role classifies a conversation message.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Message is one entry of the conversation history. For tool results, Name
// carries the originating tool call id.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Name      string     `json:"name,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Validate rejects messages that cannot be sent to a provider.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleToolResult:
	default:
		return fmt.Errorf("unknown message role: %q", m.Role)
	}
	if m.Role == RoleToolResult && m.Name == "" {
		return fmt.Errorf("tool result message must carry the tool call id")
	}
	return nil
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Usage is provider token accounting for one call.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage builds a tool result bound to its originating call.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleToolResult, Content: content, Name: callID}
}
