package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ToolFunc executes one tool invocation and returns a serializable result.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named capability the research step can schedule by name.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
	Retryable   bool // true for idempotent read-only tools
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return &ToolValidationError{ToolName: t.Name, Errors: msgs}
	}
	return nil
}

// ToolValidationError indicates tool arguments failed JSON schema validation.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	msg := fmt.Sprintf("tool %s validation failed", e.ToolName)
	for _, s := range e.Errors {
		msg += "; " + s
	}
	return msg
}

// ToolRegistry maps tool names to implementations.
type ToolRegistry map[string]Tool

// Register adds a tool to the registry.
func (r ToolRegistry) Register(t Tool) {
	r[t.Name] = t
}

// Schemas renders the registry in provider function-calling format.
func (r ToolRegistry) Schemas() []ToolSchema {
	s := make([]ToolSchema, 0, len(r))
	for _, t := range r {
		s = append(s, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
			Retryable:   t.Retryable,
		})
	}
	return s
}

// executeTool validates arguments and runs a single tool call.
func executeTool(ctx context.Context, call ToolCall, reg ToolRegistry) (string, error) {
	t, ok := reg[call.Name]
	if !ok {
		return "", &ToolError{Tool: call.Name, Err: fmt.Errorf("tool not registered")}
	}
	if err := t.ValidateArgs(call.Args); err != nil {
		return "", &ToolError{Tool: call.Name, Err: err}
	}
	result, err := t.Fn(ctx, call.Args)
	if err != nil {
		return "", &ToolError{Tool: call.Name, Err: err}
	}
	return result, nil
}

// toolOutcome pairs one tool call with its result.
type toolOutcome struct {
	call    ToolCall
	content string
	err     error
}

// Dispatch executes the pending tool calls concurrently and returns one
// message per call, in call order, ready to append to history. Failed calls
// produce an error-text result rather than failing the dispatch: the model
// sees the failure and decides how to proceed.
func Dispatch(ctx context.Context, calls []ToolCall, reg ToolRegistry, policy RetryPolicy, hooks Hooks) []Message {
	if len(calls) == 0 {
		return nil
	}

	outcomes := make([]toolOutcome, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, c ToolCall) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				outcomes[i] = toolOutcome{call: c, err: ctx.Err()}
				return
			default:
			}

			hooks.OnToolCall(ctx, c)

			retryable := false
			if t, ok := reg[c.Name]; ok {
				retryable = t.Retryable
			}
			res, err := RetryWithPolicy(ctx, policy,
				func(ctx context.Context) (string, error) {
					return executeTool(ctx, c, reg)
				},
				func(err error) RetryClass {
					return ClassifyToolError(err, retryable)
				},
				func(attempt int, delay time.Duration, retryErr error) {
					hooks.OnRetryAttempt(ctx, attempt, policy.MaxRetries, delay, retryErr)
				},
			)
			outcomes[i] = toolOutcome{call: c, content: res, err: err}
		}(i, call)
	}
	wg.Wait()

	msgs := make([]Message, 0, len(calls))
	for _, o := range outcomes {
		content := o.content
		if o.err != nil {
			content = "ERROR: " + o.err.Error()
		}
		callID := o.call.ID
		if callID == "" {
			callID = o.call.Name
		}
		msgs = append(msgs, ToolResultMessage(callID, content))
		hooks.OnToolResult(ctx, o.call, content, o.err)
	}
	return msgs
}
