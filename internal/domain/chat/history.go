package chat

import "ruleout-server/internal/domain/conversation"

// DefaultHistoryWindow is the number of prior messages sent upstream.
const DefaultHistoryWindow = 6

// HistoryEntry is one prior message as the Q&A backend expects it.
type HistoryEntry struct {
	Role    conversation.Role `json:"role"`
	Content string            `json:"content"`
}

// History returns the last window messages of transcript as role/content
// pairs. A non-positive window uses DefaultHistoryWindow.
func History(transcript []conversation.Message, window int) []HistoryEntry {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	start := len(transcript) - window
	if start < 0 {
		start = 0
	}
	out := make([]HistoryEntry, 0, len(transcript)-start)
	for _, m := range transcript[start:] {
		out = append(out, HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out
}
