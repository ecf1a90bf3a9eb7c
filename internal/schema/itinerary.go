package schema

import "encoding/json"

// Entry is one attraction or dining stop inside a day plan.
type Entry struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"` // attraction or dining
	Description string  `json:"description,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Location    string  `json:"location,omitempty"`
}

// DayPlan is one day of the itinerary.
type DayPlan struct {
	Day     int     `json:"day"`
	Summary string  `json:"summary,omitempty"`
	Entries []Entry `json:"entries"`
}

// Itinerary is the planner's final product, written only by the formatting
// step.
type Itinerary struct {
	Destination   string    `json:"destination"`
	Currency      string    `json:"currency,omitempty"`
	Days          []DayPlan `json:"days"`
	EstimatedCost float64   `json:"estimated_cost,omitempty"`
	Tips          []string  `json:"tips,omitempty"`
}

// JSON renders the itinerary for prompts and display. A nil itinerary renders
// as an empty object so prompt templates need no special case.
func (it *Itinerary) JSON() string {
	if it == nil {
		return "{}"
	}
	data, err := json.Marshal(it)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ItinerarySchema constrains the formatting step's output.
const ItinerarySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Itinerary",
  "type": "object",
  "required": ["destination", "days"],
  "properties": {
    "destination": { "type": "string", "minLength": 1 },
    "currency": { "type": "string" },
    "days": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["day", "entries"],
        "properties": {
          "day": { "type": "integer", "minimum": 1 },
          "summary": { "type": "string" },
          "entries": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "kind"],
              "properties": {
                "name": { "type": "string" },
                "kind": { "type": "string", "enum": ["attraction", "dining"] },
                "description": { "type": "string" },
                "cost": { "type": "number", "minimum": 0 },
                "rating": { "type": "number", "minimum": 0, "maximum": 5 },
                "location": { "type": "string" }
              }
            }
          }
        }
      }
    },
    "estimated_cost": { "type": "number", "minimum": 0 },
    "tips": { "type": "array", "items": { "type": "string" } }
  }
}`

// ValidationSchema constrains the request-validation output.
const ValidationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Validation",
  "type": "object",
  "required": ["is_valid", "response_message"],
  "properties": {
    "is_valid": { "type": "boolean" },
    "response_message": { "type": "string" }
  }
}`

// ReflectionSchema constrains the review output.
const ReflectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Reflection",
  "type": "object",
  "required": ["is_satisfactory", "feedback"],
  "properties": {
    "is_satisfactory": { "type": "boolean" },
    "feedback": { "type": "string" }
  }
}`

// ApprovalSchema constrains the confirm step's classification of the user's
// reply.
const ApprovalSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Approval",
  "type": "object",
  "required": ["is_approved", "valid_feedback", "llm_response"],
  "properties": {
    "is_approved": { "type": "boolean" },
    "valid_feedback": { "type": "boolean" },
    "llm_response": { "type": "string" }
  }
}`
