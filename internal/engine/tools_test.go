package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

const echoSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {"text": {"type": "string"}}
}`

func testRegistry() ToolRegistry {
	reg := make(ToolRegistry)
	reg.Register(Tool{
		Name:       "echo",
		SchemaJSON: echoSchema,
		Retryable:  true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "echo: " + args["text"].(string), nil
		},
	})
	reg.Register(Tool{
		Name:       "fail",
		SchemaJSON: `{"type": "object"}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "", fmt.Errorf("boom")
		},
	})
	return reg
}

func noRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond}
}

func TestDispatchPreservesCallOrder(t *testing.T) {
	calls := []ToolCall{
		{ID: "c1", Name: "echo", Args: map[string]any{"text": "first"}},
		{ID: "c2", Name: "echo", Args: map[string]any{"text": "second"}},
		{ID: "c3", Name: "echo", Args: map[string]any{"text": "third"}},
	}

	msgs := Dispatch(context.Background(), calls, testRegistry(), noRetry(), nil)

	if len(msgs) != 3 {
		t.Fatalf("got %d results, want 3", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Name != calls[i].ID {
			t.Errorf("result %d bound to %q, want %q", i, msgs[i].Name, calls[i].ID)
		}
		if msgs[i].Content != "echo: "+want {
			t.Errorf("result %d = %q, want echo of %q", i, msgs[i].Content, want)
		}
		if msgs[i].Role != RoleToolResult {
			t.Errorf("result %d role = %s", i, msgs[i].Role)
		}
	}
}

func TestDispatchFailureBecomesErrorResult(t *testing.T) {
	calls := []ToolCall{
		{ID: "c1", Name: "fail", Args: map[string]any{}},
		{ID: "c2", Name: "echo", Args: map[string]any{"text": "still runs"}},
	}

	msgs := Dispatch(context.Background(), calls, testRegistry(), noRetry(), nil)

	if len(msgs) != 2 {
		t.Fatalf("got %d results, want 2", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Content, "ERROR:") {
		t.Errorf("failed call should produce an error result, got %q", msgs[0].Content)
	}
	if msgs[1].Content != "echo: still runs" {
		t.Errorf("sibling call should be unaffected, got %q", msgs[1].Content)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	msgs := Dispatch(context.Background(),
		[]ToolCall{{ID: "c1", Name: "nope", Args: map[string]any{}}},
		testRegistry(), noRetry(), nil)

	if len(msgs) != 1 || !strings.Contains(msgs[0].Content, "not registered") {
		t.Fatalf("unknown tool should report as error result, got %+v", msgs)
	}
}

func TestDispatchValidatesArgs(t *testing.T) {
	msgs := Dispatch(context.Background(),
		[]ToolCall{{ID: "c1", Name: "echo", Args: map[string]any{}}},
		testRegistry(), noRetry(), nil)

	if len(msgs) != 1 || !strings.Contains(msgs[0].Content, "validation failed") {
		t.Fatalf("missing required arg should fail validation, got %+v", msgs)
	}
}

func TestDispatchEmptyCalls(t *testing.T) {
	if msgs := Dispatch(context.Background(), nil, testRegistry(), noRetry(), nil); msgs != nil {
		t.Fatalf("expected nil for empty calls, got %+v", msgs)
	}
}

func TestDispatchFallsBackToToolName(t *testing.T) {
	msgs := Dispatch(context.Background(),
		[]ToolCall{{Name: "echo", Args: map[string]any{"text": "no id"}}},
		testRegistry(), noRetry(), nil)

	if len(msgs) != 1 || msgs[0].Name != "echo" {
		t.Fatalf("call without id should bind result to tool name, got %+v", msgs)
	}
}
