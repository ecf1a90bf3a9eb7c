package steps

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// approval is the structured output of the confirmation classifier.
type approval struct {
	IsApproved    bool   `json:"is_approved"`
	ValidFeedback bool   `json:"valid_feedback"`
	LLMResponse   string `json:"llm_response"`
}

// Confirm is the human-in-the-loop gate and the only step that can terminate
// the graph successfully. Without a fresh user reply it suspends, surfacing
// the itinerary with an approval prompt. With one, it classifies the reply:
// approval terminates; actionable feedback re-derives the profile before
// another research pass; anything else re-prompts.
func (d *Deps) Confirm(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	last := st.Last()
	if last.Role != engine.RoleUser {
		return engine.Suspend(prompts.ApprovalRequest(st.Itinerary.JSON())), nil
	}

	userReply := last.Content
	msgs := []engine.Message{
		engine.SystemMessage(prompts.Confirm),
		engine.AssistantMessage(st.Itinerary.JSON()),
		engine.UserMessage(userReply),
	}

	var out approval
	if err := d.chatStructured(ctx, engine.StepConfirm, st, msgs, "approval", schema.ApprovalSchema, &out); err != nil {
		return engine.StepResult{}, err
	}

	switch {
	case out.IsApproved:
		st.Append(engine.AssistantMessage(out.LLMResponse))
		return engine.Terminate(), nil

	case out.ValidFeedback:
		// The literal reply text becomes the feedback for the next pass; the
		// profile is re-derived from scratch before research runs again.
		st.Feedback = userReply
		st.Append(engine.AssistantMessage(out.LLMResponse))
		return engine.Continue(engine.StepProfile), nil

	default:
		// Unusable reply: stay at confirm and ask again.
		st.Append(engine.AssistantMessage(out.LLMResponse))
		return engine.Suspend(out.LLMResponse), nil
	}
}
