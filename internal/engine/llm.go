package engine

import "context"

// LLMClient abstracts the chat-completion SDK (OpenAI, Anthropic, ...).
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []Message, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ResponseFormat requests schema-constrained structured output. When set, the
// provider must return an assistant message whose content is a JSON document
// conforming to JSONSchema; steps surface non-conformant output as a
// ParseError.
type ResponseFormat struct {
	Name       string
	JSONSchema string
}

// ChatOptions carries the knobs forwarded to the provider SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
	ResponseFormat  *ResponseFormat // nil = free-form text / tool calls
	RetryConfig     *RetryConfig    // nil = defaults
}

// ToolSchema describes a callable tool in provider function-calling format.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string
	Retryable   bool
}

// LLMResponse is a normalized result of one chat call.
type LLMResponse struct {
	Assistant    Message
	ToolCalls    []ToolCall
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}
