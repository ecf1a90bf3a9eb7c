// Package steps implements the workflow's step functions: validate, update
// profile, research, dispatch, format, review, and confirm. Each step reads
// ConversationState, talks to the language model, and returns a routing
// decision; the scheduler owns persistence.
package steps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// DefaultReviewCap bounds Research-Review refinement cycles. The cap takes
// precedence over the reviewer's judgment, so the loop terminates in at most
// DefaultReviewCap+1 research passes even if every review is negative.
const DefaultReviewCap = 2

// DefaultHistoryBudget is the token budget for the trimmed history view sent
// to the research model.
const DefaultHistoryBudget = 12000

// Deps is the dependency context shared read-only across sessions. It is
// constructed once per process; steps close over it instead of reaching for
// globals.
type Deps struct {
	LLM   engine.LLMClient
	Model string
	Tools engine.ToolRegistry
	Hooks engine.Hooks
	Retry engine.RetryConfig

	ReviewCap        int // research-review cycles before forcing confirm
	MaxClarifyRounds int // validate re-prompts before giving up, 0 = unlimited
	HistoryBudget    int // tokens of history shown to research
	Temperature      float32
	MaxOutputTokens  int

	// Now is injected so research prompts and tests agree on today's date.
	Now func() time.Time
}

// NewDeps fills in defaults for unset fields.
func NewDeps(llm engine.LLMClient, model string, tools engine.ToolRegistry) *Deps {
	return &Deps{
		LLM:           llm,
		Model:         model,
		Tools:         tools,
		Retry:         engine.DefaultRetryConfig(),
		ReviewCap:     DefaultReviewCap,
		HistoryBudget: DefaultHistoryBudget,
		Temperature:   0.2,
		Now:           time.Now,
	}
}

// Graph wires the step functions into the workflow graph, entered at Validate.
func (d *Deps) Graph() *engine.Graph {
	g := engine.NewGraph(engine.StepValidate)
	g.Add(engine.StepValidate, d.Validate)
	g.Add(engine.StepProfile, d.UpdateProfile)
	g.Add(engine.StepResearch, d.Research)
	g.Add(engine.StepDispatch, d.DispatchTools)
	g.Add(engine.StepFormat, d.Format)
	g.Add(engine.StepReview, d.Review)
	g.Add(engine.StepConfirm, d.Confirm)
	return g
}

// chat performs one model call with retry and records usage.
func (d *Deps) chat(ctx context.Context, step engine.StepID, st *engine.ConversationState, msgs []engine.Message, tools []engine.ToolSchema, format *engine.ResponseFormat) (engine.LLMResponse, error) {
	opts := engine.ChatOptions{
		Temperature:     d.Temperature,
		MaxOutputTokens: d.MaxOutputTokens,
		ResponseFormat:  format,
	}

	d.Hooks.OnBeforeLLM(ctx, step, msgs)
	resp, err := engine.RetryWithPolicy(ctx, d.Retry.LLMPolicy,
		func(ctx context.Context) (engine.LLMResponse, error) {
			return d.LLM.Chat(ctx, d.Model, msgs, tools, opts)
		},
		engine.ClassifyLLMError,
		func(attempt int, delay time.Duration, retryErr error) {
			d.Hooks.OnRetryAttempt(ctx, attempt, d.Retry.LLMPolicy.MaxRetries, delay, retryErr)
		},
	)
	if err != nil {
		return engine.LLMResponse{}, err
	}
	d.Hooks.OnAfterLLM(ctx, step, resp)
	st.AddUsage(resp.Usage)
	return resp, nil
}

// chatStructured performs a schema-constrained call and decodes the result
// into out. Non-conformant model output is a ParseError: fatal to the step,
// never guessed around.
func (d *Deps) chatStructured(ctx context.Context, step engine.StepID, st *engine.ConversationState, msgs []engine.Message, name, schemaJSON string, out any) error {
	resp, err := d.chat(ctx, step, st, msgs, nil, &engine.ResponseFormat{Name: name, JSONSchema: schemaJSON})
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(resp.Assistant.Content)
	raw = stripCodeFence(raw)
	if err := schema.Validate(name, schemaJSON, []byte(raw)); err != nil {
		return &engine.ParseError{Schema: name, Raw: raw, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &engine.ParseError{Schema: name, Raw: raw, Err: err}
	}
	return nil
}

// stripCodeFence unwraps ```json fenced output some models insist on.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
