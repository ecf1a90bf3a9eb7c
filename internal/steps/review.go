package steps

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// reflection is the structured output of the review call.
type reflection struct {
	IsSatisfactory bool   `json:"is_satisfactory"`
	Feedback       string `json:"feedback"`
}

// Review reflects on the current itinerary. The iteration cap takes
// precedence over the model's judgment: once the counter reaches it, control
// goes to confirm regardless of quality, which bounds the refine loop at
// cap+1 research passes. Below the cap, an unsatisfactory verdict increments
// the counter, records the feedback, and sends the session back to research.
func (d *Deps) Review(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	if st.Iterations >= d.ReviewCap {
		return engine.Continue(engine.StepConfirm), nil
	}

	system := prompts.Review(schema.ItinerarySchema, st.Profile.JSON(), st.Feedback)
	msgs := []engine.Message{
		engine.SystemMessage(system),
		engine.UserMessage(st.Itinerary.JSON()),
	}

	var out reflection
	if err := d.chatStructured(ctx, engine.StepReview, st, msgs, "reflection", schema.ReflectionSchema, &out); err != nil {
		return engine.StepResult{}, err
	}

	if out.IsSatisfactory {
		return engine.Continue(engine.StepConfirm), nil
	}

	st.BumpIteration()
	st.Feedback = out.Feedback
	st.Append(engine.AssistantMessage("Reviewer feedback: " + out.Feedback))
	return engine.Continue(engine.StepResearch), nil
}
