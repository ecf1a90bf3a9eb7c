package steps

import (
	"context"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/prompts"
	"github.com/tripweaver/tripweaver/internal/schema"
)

// UpdateProfile derives the traveler profile from the conversation and
// overwrites state. It runs once after validation and again whenever a
// rejected confirmation sends the session back for re-derivation. Always
// proceeds to research.
func (d *Deps) UpdateProfile(ctx context.Context, st *engine.ConversationState) (engine.StepResult, error) {
	system := prompts.Profile(schema.DefaultProfile().JSON())
	msgs := append([]engine.Message{engine.SystemMessage(system)}, st.Messages...)

	var profile schema.UserProfile
	if err := d.chatStructured(ctx, engine.StepProfile, st, msgs, "user_profile", schema.ProfileSchema, &profile); err != nil {
		return engine.StepResult{}, err
	}

	st.Profile = profile
	return engine.Continue(engine.StepResearch), nil
}
