// Package schema defines the structured records the planner exchanges with
// the language model, along with their JSON schemas and validation helpers.
package schema

import "encoding/json"

// UserProfile is the structured traveler record. It is created with defaults,
// populated once by profile extraction, and re-derived after a rejected
// review.
type UserProfile struct {
	Destination string   `json:"destination,omitempty"`
	Adults      int      `json:"adults"`
	Children    int      `json:"children"`
	Days        int      `json:"days"`
	Budget      float64  `json:"budget,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Pace        string   `json:"pace,omitempty"`       // relaxed, moderate, packed
	Interests   []string `json:"interests,omitempty"`  // e.g. food, museums, hiking
	Preferences string   `json:"preferences,omitempty"` // free-text wishes
}

// DefaultProfile returns the profile assumed before extraction runs.
func DefaultProfile() UserProfile {
	return UserProfile{
		Adults:   2,
		Children: 0,
		Days:     3,
		Pace:     "moderate",
	}
}

// IsEmpty reports whether the profile still carries no destination, which is
// the marker for "extraction has not run yet".
func (p UserProfile) IsEmpty() bool {
	return p.Destination == ""
}

// JSON renders the profile for prompt injection.
func (p UserProfile) JSON() string {
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ProfileSchema constrains the profile extraction output.
const ProfileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "UserProfile",
  "type": "object",
  "required": ["destination", "adults", "children", "days"],
  "properties": {
    "destination": { "type": "string", "minLength": 1 },
    "adults": { "type": "integer", "minimum": 1 },
    "children": { "type": "integer", "minimum": 0 },
    "days": { "type": "integer", "minimum": 1 },
    "budget": { "type": "number", "minimum": 0 },
    "currency": { "type": "string" },
    "pace": { "type": "string", "enum": ["relaxed", "moderate", "packed"] },
    "interests": { "type": "array", "items": { "type": "string" } },
    "preferences": { "type": "string" }
  }
}`
