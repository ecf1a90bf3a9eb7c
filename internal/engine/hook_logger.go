package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ZapHook logs scheduler activity through a structured logger.
type ZapHook struct {
	NopHook
	L *zap.Logger
}

func (h ZapHook) OnStepStart(_ context.Context, step StepID, st *ConversationState) {
	h.L.Debug("step start",
		zap.String("step", string(step)),
		zap.Int("messages", len(st.Messages)),
		zap.Int("iterations", st.Iterations))
}

func (h ZapHook) OnStepEnd(_ context.Context, step StepID, _ *ConversationState, res StepResult, err error) {
	if err != nil {
		h.L.Error("step failed", zap.String("step", string(step)), zap.Error(err))
		return
	}
	h.L.Debug("step end",
		zap.String("step", string(step)),
		zap.String("outcome", string(res.Kind)),
		zap.String("next", string(res.Next)))
}

func (h ZapHook) OnBeforeLLM(_ context.Context, step StepID, messages []Message) {
	h.L.Debug("llm call",
		zap.String("step", string(step)),
		zap.Int("messages", len(messages)),
		zap.Int("est_tokens", EstimateMessagesTokens(messages)))
}

func (h ZapHook) OnAfterLLM(_ context.Context, step StepID, resp LLMResponse) {
	h.L.Debug("llm response",
		zap.String("step", string(step)),
		zap.String("finish", resp.FinishReason),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.Int("tokens", resp.Usage.Total))
}

func (h ZapHook) OnToolCall(_ context.Context, call ToolCall) {
	h.L.Info("tool call", zap.String("tool", call.Name), zap.Any("args", call.Args))
}

func (h ZapHook) OnToolResult(_ context.Context, call ToolCall, result string, err error) {
	if err != nil {
		h.L.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return
	}
	preview := result
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	h.L.Debug("tool result", zap.String("tool", call.Name), zap.String("result", preview))
}

func (h ZapHook) OnSuspend(_ context.Context, step StepID, prompt string) {
	h.L.Info("suspended", zap.String("step", string(step)), zap.String("prompt", prompt))
}

func (h ZapHook) OnResume(_ context.Context, step StepID, reply string) {
	h.L.Info("resumed", zap.String("step", string(step)), zap.String("reply", reply))
}

func (h ZapHook) OnRetryAttempt(_ context.Context, attempt, maxAttempts int, delay time.Duration, err error) {
	h.L.Warn("retry",
		zap.Int("attempt", attempt),
		zap.Int("max", maxAttempts),
		zap.Duration("delay", delay),
		zap.Error(err))
}

func (h ZapHook) OnDone(_ context.Context, st *ConversationState) {
	h.L.Info("session done",
		zap.Int("messages", len(st.Messages)),
		zap.Int("iterations", st.Iterations),
		zap.Int("total_tokens", st.Totals.Total))
}
