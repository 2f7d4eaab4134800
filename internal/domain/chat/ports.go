package chat

import (
	"context"
	"encoding/json"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
)

// QueryRequest is the body of a Q&A stream request.
type QueryRequest struct {
	Question              string          `json:"question"`
	ConversationHistory   []HistoryEntry  `json:"conversation_history"`
	PreviousContextChunks json.RawMessage `json:"previous_context_chunks"`
	Language              locale.Language `json:"language"`
}

// EventStream yields decoded upstream events. Next returns io.EOF when the
// upstream closes the stream.
type EventStream interface {
	Next() (Event, error)
	Close() error
}

// QAClient opens Q&A event streams.
type QAClient interface {
	QueryStream(ctx context.Context, req QueryRequest) (EventStream, error)
}

// ConversationStore is the subset of the conversation service a chat turn
// reads and writes.
type ConversationStore interface {
	Create(ctx context.Context, userID string) (*conversation.Conversation, error)
	Get(ctx context.Context, userID, id string) (*conversation.Conversation, error)
	AddMessage(ctx context.Context, userID, id string, msg conversation.Message) error
	UpdateTitle(ctx context.Context, userID, id, title string) (string, error)
	TruncateMessages(ctx context.Context, userID, id string, from int) error
	ClearFollowups(ctx context.Context, userID, id string) error
	SetContextChunks(ctx context.Context, userID, id string, raw json.RawMessage) error
}

// GuestGate meters questions asked without an account.
type GuestGate interface {
	Allow(ctx context.Context, guestID string) (remaining int, err error)
}

// Observer receives stream lifecycle signals.
type Observer interface {
	StreamStarted()
	StreamFinished(outcome string)
	EventReceived(status Status)
}

// Redactor masks personal data before a question is logged.
type Redactor interface {
	SanitizePrompt(input string) string
}

type nopObserver struct{}

func (nopObserver) StreamStarted() {}
func (nopObserver) StreamFinished(string) {}
func (nopObserver) EventReceived(Status) {}

// Stream outcomes reported to Observer.StreamFinished.
const (
	OutcomeCompleted  = "completed"
	OutcomeCancelled  = "cancelled"
	OutcomeFailed     = "failed"
	OutcomeOutOfScope = "out_of_scope"
	OutcomeError      = "error"
)
