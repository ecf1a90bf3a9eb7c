package providers

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/tripweaver/tripweaver/internal/engine"
)

// AnthropicClient implements engine.LLMClient via the Anthropic messages API.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates an Anthropic-backed client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	return &AnthropicClient{client: anthropic.NewClient(apiKey)}, nil
}

// Chat implements engine.LLMClient. Structured output is requested by forcing
// a single synthetic tool whose input schema is the response schema; the
// tool_use input comes back as the assistant content.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.Message, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	systemParts, anthropicMsgs, err := toAnthropicMessages(messages)
	if err != nil {
		return engine.LLMResponse{}, err
	}

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return engine.LLMResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	maxTokens := 4096
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}
	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(modelName),
		Messages:    anthropicMsgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}

	structuredName := ""
	if opts.ResponseFormat != nil {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(opts.ResponseFormat.JSONSchema), &schemaObj); err != nil {
			return engine.LLMResponse{}, fmt.Errorf("invalid response schema JSON for %s: %w", opts.ResponseFormat.Name, err)
		}
		structuredName = opts.ResponseFormat.Name
		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        structuredName,
			Description: "Record the answer in the required shape.",
			InputSchema: schemaObj,
		})
		req.ToolChoice = &anthropic.ToolChoice{Type: "tool", Name: structuredName}
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return engine.LLMResponse{}, fmt.Errorf("anthropic chat failed: %w", err)
	}

	var textContent string
	var toolCalls []engine.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		case "tool_use":
			if block.MessageContentToolUse == nil || block.ID == "" || block.Name == "" {
				continue
			}
			if block.Name == structuredName {
				// Forced structured answer, surface as plain content.
				textContent = string(block.Input)
				continue
			}
			args := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					args = make(map[string]any)
				}
			}
			toolCalls = append(toolCalls, engine.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}

	finishReason := "stop"
	if len(toolCalls) > 0 {
		finishReason = "tool_calls"
	} else if resp.StopReason == "max_tokens" {
		finishReason = "length"
	} else if resp.StopReason == "content_filtered" {
		finishReason = "content_filter"
	}

	usage := engine.Usage{
		Prompt:     resp.Usage.InputTokens,
		Completion: resp.Usage.OutputTokens,
		Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}

	assistant := engine.Message{
		Role:      engine.RoleAssistant,
		Content:   textContent,
		ToolCalls: toolCalls,
	}

	return engine.LLMResponse{
		Assistant:    assistant,
		ToolCalls:    toolCalls,
		Usage:        usage,
		FinishReason: finishReason,
	}, nil
}

// toAnthropicMessages converts engine messages to the Anthropic wire format.
// System messages go out-of-band; tool results become user messages and must
// follow an assistant message with tool_use blocks.
func toAnthropicMessages(messages []engine.Message) ([]anthropic.MessageSystemPart, []anthropic.Message, error) {
	var systemParts []anthropic.MessageSystemPart
	var out []anthropic.Message
	var prevAssistantHadToolCalls bool

	for i, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
			prevAssistantHadToolCalls = false

		case engine.RoleUser:
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
			prevAssistantHadToolCalls = false

		case engine.RoleAssistant:
			var content []anthropic.MessageContent
			if msg.Content != "" && msg.Content != " " {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Args)
				content = append(content, anthropic.NewToolUseMessageContent(
					tc.ID,
					tc.Name,
					json.RawMessage(argsJSON),
				))
			}
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: content,
			})
			prevAssistantHadToolCalls = len(msg.ToolCalls) > 0

		case engine.RoleToolResult:
			if !prevAssistantHadToolCalls {
				continue
			}
			content := msg.Content
			if content == "" {
				content = "{}"
			}
			// msg.Name carries the tool_use id, not the tool name.
			out = append(out, anthropic.Message{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewToolResultMessageContent(msg.Name, content, false),
				},
			})
			if i+1 < len(messages) && messages[i+1].Role == engine.RoleAssistant {
				prevAssistantHadToolCalls = false
			}

		default:
			return nil, nil, fmt.Errorf("unknown message role: %s", msg.Role)
		}
	}
	return systemParts, out, nil
}
