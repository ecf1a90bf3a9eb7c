package engine

import "strings"

// EstimateTokens provides a rough token count for text. Uses the ~4 chars per
// token heuristic with a whitespace correction; close enough for trimming
// decisions, not for billing.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	charCount := len([]rune(text))
	whitespaceCount := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")

	estimated := (charCount / 4) + (whitespaceCount / 6)
	if estimated < 1 {
		return 1
	}
	return estimated
}

// estimateMessageTokens counts a message including its role and tool calls.
func estimateMessageTokens(msg Message) int {
	total := EstimateTokens(string(msg.Role)) + EstimateTokens(msg.Content)
	for _, tc := range msg.ToolCalls {
		total += EstimateTokens(tc.Name) + 8
		for k, v := range tc.Args {
			total += EstimateTokens(k)
			if s, ok := v.(string); ok {
				total += EstimateTokens(s)
			} else {
				total += 4
			}
		}
	}
	return total + 4 // per-message framing overhead
}

// EstimateMessagesTokens counts tokens for a slice of messages.
func EstimateMessagesTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += estimateMessageTokens(m)
	}
	return total
}

// TrimToBudget returns a copy of msgs fitting within maxTokens. Oldest
// non-system messages are dropped first; system messages are always kept and
// never count toward eviction order. The stored history is untouched: the
// trimmed view exists only for the model call.
func TrimToBudget(msgs []Message, maxTokens int) []Message {
	if maxTokens <= 0 {
		out := make([]Message, len(msgs))
		copy(out, msgs)
		return out
	}

	total := EstimateMessagesTokens(msgs)
	if total <= maxTokens {
		out := make([]Message, len(msgs))
		copy(out, msgs)
		return out
	}

	// Mark the oldest droppable messages until the rest fits.
	drop := make([]bool, len(msgs))
	for i, m := range msgs {
		if total <= maxTokens {
			break
		}
		if m.Role == RoleSystem {
			continue
		}
		drop[i] = true
		total -= estimateMessageTokens(m)
	}

	out := make([]Message, 0, len(msgs))
	for i, m := range msgs {
		if !drop[i] {
			out = append(out, m)
		}
	}
	return out
}
