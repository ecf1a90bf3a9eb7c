package engine

import (
	"encoding/json"
	"fmt"

	"github.com/tripweaver/tripweaver/internal/schema"
)

// ConversationState is the single mutable aggregate threaded through every
// step of a session. Exactly one step mutates it at a time; the scheduler
// snapshots it after each step so a suspended session can be resumed.
type ConversationState struct {
	Messages   []Message          `json:"messages"`
	Profile    schema.UserProfile `json:"profile"`
	Itinerary  *schema.Itinerary  `json:"itinerary,omitempty"`
	Feedback   string             `json:"feedback"`
	Iterations int                `json:"iterations"`

	// ClarifyRounds counts how many times validation has re-prompted the
	// user. Only consulted when a clarification bound is configured.
	ClarifyRounds int `json:"clarify_rounds,omitempty"`

	Totals Usage `json:"totals"`
}

// NewConversationState seeds a session from the initial user request.
func NewConversationState(request string) *ConversationState {
	return &ConversationState{
		Messages: []Message{UserMessage(request)},
		Profile:  schema.DefaultProfile(),
	}
}

// Append adds a message to the stored history. History is append-only: trims
// for the model's context window apply to copies, never to this slice.
func (s *ConversationState) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Last returns the most recent message, or a zero Message for empty history.
func (s *ConversationState) Last() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

// BumpIteration advances the refinement counter. The counter is monotonic for
// the whole session; nothing ever resets it.
func (s *ConversationState) BumpIteration() {
	s.Iterations++
}

// AddUsage accumulates provider token accounting.
func (s *ConversationState) AddUsage(u Usage) {
	s.Totals.Prompt += u.Prompt
	s.Totals.Completion += u.Completion
	s.Totals.Total += u.Total
}

// Snapshot serializes the state for the checkpoint store.
func (s *ConversationState) Snapshot() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot state: %w", err)
	}
	return data, nil
}

// RestoreState deserializes a checkpoint snapshot.
func RestoreState(data []byte) (*ConversationState, error) {
	var st ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}
	return &st, nil
}
