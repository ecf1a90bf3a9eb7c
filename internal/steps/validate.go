package steps

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// validationResult is the structured output of the validation call.
type validationResult struct {
	IsValid         bool   `json:"is_valid"`
	ResponseMessage string `json:"response_message"`
}

// Validate gates the workflow on a complete request: destination, party size,
// budget, and day count must all be present. Incomplete requests suspend the
// session with a prompt for the missing facts; the step re-runs after each
// user reply until the request is valid or the configured clarification bound
// is exhausted.
func (d *Deps) Validate(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	msgs := append([]engine.Message{engine.SystemMessage(prompts.Validate)}, st.Messages...)

	var out validationResult
	if err := d.chatStructured(ctx, engine.StepValidate, st, msgs, "validation", schema.ValidationSchema, &out); err != nil {
		return engine.StepResult{}, err
	}

	if !out.IsValid {
		if d.MaxClarifyRounds > 0 && st.ClarifyRounds >= d.MaxClarifyRounds {
			return engine.StepResult{}, engine.ErrClarifyExhausted
		}
		st.ClarifyRounds++
		return engine.Suspend(out.ResponseMessage), nil
	}

	st.Append(engine.AssistantMessage(out.ResponseMessage))
	return engine.Continue(engine.StepProfile), nil
}
