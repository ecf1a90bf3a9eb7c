// Package prompts holds the instruction templates sent to the language model.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// ResearchComplete is the sentinel the research instruction asks the model to
// emit once it has gathered enough material for a full itinerary. Its presence
// in a reply with no pending tool calls routes control to formatting.
const ResearchComplete = "RESEARCH_COMPLETE"

// Validate asks for a structured judgment of whether the request carries the
// four facts the planner needs.
const Validate = `You validate travel planning requests.

A request is valid only when it states, or the conversation so far establishes,
all of: destination, party size, budget, and trip length in days.

Return a JSON object {"is_valid": bool, "response_message": string}. When the
request is invalid, response_message must ask the user for exactly the missing
facts, briefly and politely. When it is valid, response_message should restate
the request in one sentence.`

// Profile asks for a structured traveler profile extraction.
func Profile(defaultsJSON string) string {
	return fmt.Sprintf(`Extract the traveler profile from the conversation as a JSON object
conforming to the user profile schema.

Assume these defaults for anything unstated:
%s

Assume adult occupancy unless stated otherwise. If no currency is given, infer
the local currency of the destination. Do not invent preferences the user did
not express.`, defaultsJSON)
}

// Research builds the research system instruction. It mirrors the shape the
// reviewer loop depends on: prior results and feedback are injected so a
// revision pass improves on the previous one instead of starting over.
func Research(today time.Time, profileJSON, feedback, itineraryJSON string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a travel research agent. Search the web, look up places, query the
places database, and retrieve guide excerpts to gather everything needed for a
day-by-day itinerary matching the traveler profile.

Today's date is %s.

The traveler profile is:
%s
`, today.Format("2006-01-02"), profileJSON)

	if itineraryJSON != "" && itineraryJSON != "{}" {
		fmt.Fprintf(&b, "\nThe previous itinerary draft is:\n%s\n", itineraryJSON)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\nReviewer feedback on the previous draft:\n%s\nUse it to improve your results.\n", feedback)
	}

	fmt.Fprintf(&b, `
Use your tools as needed. When your research is complete, reply with a full
summary of your findings ending with the marker %s on its own line.`, ResearchComplete)
	return b.String()
}

// Format asks for the final schema-constrained itinerary.
const Format = `Convert the research findings into a single itinerary JSON object conforming
to the itinerary schema: destination, currency, day-by-day attraction and
dining entries with cost, rating and location, an aggregate cost estimate, and
general tips. Output only the JSON object.`

// Review builds the reflection instruction for the itinerary critic.
func Review(itinerarySchema, profileJSON, priorFeedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You review a proposed travel itinerary against the traveler profile.

The itinerary JSON schema is:
%s

Keep your criticisms within that schema.

The traveler profile is:
%s
`, itinerarySchema, profileJSON)

	if priorFeedback != "" {
		fmt.Fprintf(&b, "\nFeedback you gave on an earlier draft:\n%s\n", priorFeedback)
	}

	b.WriteString(`
Judge whether the itinerary satisfies the profile (budget, trip length, party,
stated preferences). Return {"is_satisfactory": bool, "feedback": string}
where feedback says concretely what to improve when unsatisfactory.`)
	return b.String()
}

// Confirm classifies the user's reply to the approval prompt.
const Confirm = `The user was shown a travel itinerary and asked to approve it. Classify their
latest reply.

Return {"is_approved": bool, "valid_feedback": bool, "llm_response": string}:
  - is_approved: the user accepts the itinerary as-is.
  - valid_feedback: when not approved, whether the reply contains actionable
    feedback that could change the itinerary (as opposed to an unclear or
    unrelated reply).
  - llm_response: a short message to show the user next.`

// ApprovalRequest renders the suspension payload shown alongside the
// itinerary when asking the user to approve it.
func ApprovalRequest(itineraryJSON string) string {
	return fmt.Sprintf(`Here is your proposed itinerary:

%s

Reply "approve" to accept it, or tell me what you would like changed.`, itineraryJSON)
}
