package responses

import (
	"time"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/conversation"
)

// MessageResponse is a stored message with its rendered citation segments.
type MessageResponse struct {
	conversation.Message
	Segments []chat.Segment `json:"segments,omitempty"`
}

// ConversationSummary is a list entry without the transcript.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	IsFavorite   bool      `json:"is_favorite"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConversationResponse is a full conversation and the projects holding it.
type ConversationResponse struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	IsFavorite bool              `json:"is_favorite"`
	Messages   []MessageResponse `json:"messages"`
	ProjectIDs []string          `json:"project_ids"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewMessageResponse(msg conversation.Message) MessageResponse {
	resp := MessageResponse{Message: msg}
	if msg.Role == conversation.RoleAssistant {
		resp.Segments = chat.ParseCitations(msg.Content, false)
	}
	return resp
}

func NewConversationSummary(conv *conversation.Conversation) ConversationSummary {
	return ConversationSummary{
		ID:           conv.ID,
		Title:        conv.Title,
		IsFavorite:   conv.IsFavorite,
		MessageCount: len(conv.Messages),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func NewConversationSummaries(convs []*conversation.Conversation) []ConversationSummary {
	out := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		out = append(out, NewConversationSummary(conv))
	}
	return out
}

func NewConversationResponse(conv *conversation.Conversation) ConversationResponse {
	messages := make([]MessageResponse, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, NewMessageResponse(msg))
	}
	return ConversationResponse{
		ID:         conv.ID,
		Title:      conv.Title,
		IsFavorite: conv.IsFavorite,
		Messages:   messages,
		ProjectIDs: []string{},
		CreatedAt:  conv.CreatedAt,
		UpdatedAt:  conv.UpdatedAt,
	}
}

// FeedbackResponse reports the feedback value after a toggle.
type FeedbackResponse struct {
	Feedback conversation.Feedback `json:"feedback"`
}

// FavoriteResponse reports the favorite flag after a toggle.
type FavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// CopyResponse is the clipboard text of an answer.
type CopyResponse struct {
	Text string `json:"text"`
}
