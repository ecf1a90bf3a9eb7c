package engine

import (
	"context"
	"time"
)

// Hook receives observability callbacks from the scheduler. Hooks must not
// mutate state.
type Hook interface {
	OnStepStart(ctx context.Context, step StepID, st *ConversationState)
	OnStepEnd(ctx context.Context, step StepID, st *ConversationState, res StepResult, err error)
	OnBeforeLLM(ctx context.Context, step StepID, messages []Message)
	OnAfterLLM(ctx context.Context, step StepID, resp LLMResponse)
	OnToolCall(ctx context.Context, call ToolCall)
	OnToolResult(ctx context.Context, call ToolCall, result string, err error)
	OnSuspend(ctx context.Context, step StepID, prompt string)
	OnResume(ctx context.Context, step StepID, reply string)
	OnRetryAttempt(ctx context.Context, attempt, maxAttempts int, delay time.Duration, err error)
	OnDone(ctx context.Context, st *ConversationState)
}

// NopHook implements Hook with no-ops so callers can embed it and override
// only what they need.
type NopHook struct{}

func (NopHook) OnStepStart(context.Context, StepID, *ConversationState)                  {}
func (NopHook) OnStepEnd(context.Context, StepID, *ConversationState, StepResult, error) {}
func (NopHook) OnBeforeLLM(context.Context, StepID, []Message)                           {}
func (NopHook) OnAfterLLM(context.Context, StepID, LLMResponse)                          {}
func (NopHook) OnToolCall(context.Context, ToolCall)                                     {}
func (NopHook) OnToolResult(context.Context, ToolCall, string, error)                    {}
func (NopHook) OnSuspend(context.Context, StepID, string)                                {}
func (NopHook) OnResume(context.Context, StepID, string)                                 {}
func (NopHook) OnRetryAttempt(context.Context, int, int, time.Duration, error)           {}
func (NopHook) OnDone(context.Context, *ConversationState)                               {}

// Hooks fans callbacks out to multiple hooks.
type Hooks []Hook

func (hs Hooks) OnStepStart(ctx context.Context, step StepID, st *ConversationState) {
	for _, h := range hs {
		h.OnStepStart(ctx, step, st)
	}
}

func (hs Hooks) OnStepEnd(ctx context.Context, step StepID, st *ConversationState, res StepResult, err error) {
	for _, h := range hs {
		h.OnStepEnd(ctx, step, st, res, err)
	}
}

func (hs Hooks) OnBeforeLLM(ctx context.Context, step StepID, messages []Message) {
	for _, h := range hs {
		h.OnBeforeLLM(ctx, step, messages)
	}
}

func (hs Hooks) OnAfterLLM(ctx context.Context, step StepID, resp LLMResponse) {
	for _, h := range hs {
		h.OnAfterLLM(ctx, step, resp)
	}
}

func (hs Hooks) OnToolCall(ctx context.Context, call ToolCall) {
	for _, h := range hs {
		h.OnToolCall(ctx, call)
	}
}

func (hs Hooks) OnToolResult(ctx context.Context, call ToolCall, result string, err error) {
	for _, h := range hs {
		h.OnToolResult(ctx, call, result, err)
	}
}

func (hs Hooks) OnSuspend(ctx context.Context, step StepID, prompt string) {
	for _, h := range hs {
		h.OnSuspend(ctx, step, prompt)
	}
}

func (hs Hooks) OnResume(ctx context.Context, step StepID, reply string) {
	for _, h := range hs {
		h.OnResume(ctx, step, reply)
	}
}

func (hs Hooks) OnRetryAttempt(ctx context.Context, attempt, maxAttempts int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, attempt, maxAttempts, delay, err)
	}
}

func (hs Hooks) OnDone(ctx context.Context, st *ConversationState) {
	for _, h := range hs {
		h.OnDone(ctx, st)
	}
}
