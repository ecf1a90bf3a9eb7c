package steps

import (
	"context"
	"strings"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
)

// Research runs one tool-using research pass. The system instruction carries
// today's date, the traveler profile, any reviewer feedback, and the previous
// itinerary draft; the history is trimmed to the token budget before the call
// (stored history is never touched).
//
// Routing inspects the reply: pending tool calls go to the dispatcher, the
// completion sentinel advances to formatting, and plain continuation text
// loops back here as a cue to keep working.
func (d *Deps) Research(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	system := prompts.Research(d.Now(), st.Profile.JSON(), st.Feedback, st.Itinerary.JSON())
	view := engine.TrimToBudget(st.Messages, d.HistoryBudget)
	msgs := append([]engine.Message{engine.SystemMessage(system)}, view...)

	resp, err := d.chat(ctx, engine.StepResearch, st, msgs, d.Tools.Schemas(), nil)
	if err != nil {
		return engine.StepResult{}, err
	}

	// The reply is appended verbatim, tool calls included, so the dispatcher
	// and the next research pass see exactly what the model produced.
	reply := resp.Assistant
	reply.ToolCalls = resp.ToolCalls
	st.Append(reply)

	return routeResearch(reply), nil
}

// routeResearch decides where a research reply sends control.
func routeResearch(reply engine.Message) engine.StepResult {
	if len(reply.ToolCalls) > 0 {
		return engine.Continue(engine.StepDispatch)
	}
	if strings.Contains(reply.Content, prompts.ResearchComplete) {
		return engine.Continue(engine.StepFormat)
	}
	return engine.Continue(engine.StepResearch)
}

// DispatchTools executes the pending tool calls from the latest assistant
// message, appends their results in call order, and returns to research.
func (d *Deps) DispatchTools(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	last := st.Last()
	if last.Role != engine.RoleAssistant || len(last.ToolCalls) == 0 {
		// Nothing pending; research decides what to do next.
		return engine.Continue(engine.StepResearch), nil
	}

	results := engine.Dispatch(ctx, last.ToolCalls, d.Tools, d.Retry.ToolPolicy, d.Hooks)
	for _, msg := range results {
		st.Append(msg)
	}
	return engine.Continue(engine.StepResearch), nil
}
