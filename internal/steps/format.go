package steps

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// Format converts the final research findings into a schema-conformant
// itinerary and overwrites the state's current candidate. It is the only
// writer of state.Itinerary. Always routes to review.
func (d *Deps) Format(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	msgs := []engine.Message{
		engine.SystemMessage(prompts.Format),
		engine.UserMessage(finalResearchMessage(st)),
	}

	var it schema.Itinerary
	if err := d.chatStructured(ctx, engine.StepFormat, st, msgs, "itinerary", schema.ItinerarySchema, &it); err != nil {
		return engine.StepResult{}, err
	}

	st.Itinerary = &it
	return engine.Continue(engine.StepReview), nil
}

// finalResearchMessage returns the content of the latest assistant message,
// which at this point in the graph is the sentinel-bearing research summary.
func finalResearchMessage(st *engine.ConversationState) string {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].Role == engine.RoleAssistant {
			return st.Messages[i].Content
		}
	}
	return ""
}
