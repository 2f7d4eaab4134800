package conversation

import (
	"encoding/json"
	"time"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is a thumbs-up/down rating. The empty value means no rating.
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
)

// Valid reports whether f is a value a client may submit.
func (f Feedback) Valid() bool {
	return f == FeedbackLike || f == FeedbackDislike
}

// Toggle returns the feedback that results from a user pressing next while
// current is set: pressing the same button again clears it.
func (f Feedback) Toggle(next Feedback) Feedback {
	if f == next {
		return FeedbackNone
	}
	return next
}

// Reference is a literature source cited by an assistant answer.
type Reference struct {
	Title    string   `json:"title"`
	Source   string   `json:"source"`
	Year     string   `json:"year"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
	Authors  string   `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Text     string   `json:"text,omitempty"`
	Page     int      `json:"page,omitempty"`
	Feedback Feedback `json:"feedback,omitempty"`
}

// ThinkingStep is one stage shown while an answer is produced.
type ThinkingStep struct {
	Icon      string `json:"icon"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Duration  int64  `json:"duration,omitempty"`
}

// Message is one entry of a conversation transcript.
type Message struct {
	Role              Role           `json:"role"`
	Content           string         `json:"content"`
	References        []Reference    `json:"references,omitempty"`
	FollowupQuestions []string       `json:"followup_questions,omitempty"`
	ThinkingSteps     []ThinkingStep `json:"thinking_steps,omitempty"`
	Feedback          Feedback       `json:"feedback,omitempty"`
	IsOutOfScope      bool           `json:"is_out_of_scope,omitempty"`
	IsStreaming       bool           `json:"is_streaming,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	out := m
	if m.References != nil {
		out.References = append([]Reference(nil), m.References...)
	}
	if m.FollowupQuestions != nil {
		out.FollowupQuestions = append([]string(nil), m.FollowupQuestions...)
	}
	if m.ThinkingSteps != nil {
		out.ThinkingSteps = append([]ThinkingStep(nil), m.ThinkingSteps...)
	}
	return out
}

// Conversation is a user-owned chat thread.
type Conversation struct {
	ID            string
	UserID        string
	Title         string
	IsFavorite    bool
	Messages      []Message
	ContextChunks json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter narrows List results.
type Filter struct {
	FavoritesOnly bool
	Search        string
	Limit         int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
	MaxTitleLength   = 120
)
