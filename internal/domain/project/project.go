package project

import (
	"context"
	"time"

	"ruleout-server/internal/domain/conversation"
)

// Project groups conversations under a title. Conversation membership is a
// set whose insertion order is kept.
type Project struct {
	ID              string    `json:"id"`
	UserID          string    `json:"-"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ConversationIDs []string  `json:"conversation_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasConversation reports whether conversationID is part of the project.
func (p *Project) HasConversation(conversationID string) bool {
	for _, id := range p.ConversationIDs {
		if id == conversationID {
			return true
		}
	}
	return false
}

// Repository persists projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	// List returns the user's projects by updated_at, newest first.
	List(ctx context.Context, userID string) ([]*Project, error)
	Update(ctx context.Context, proj *Project) error
	Delete(ctx context.Context, userID, id string) error
	// DetachConversation removes conversationID from every project of userID.
	DetachConversation(ctx context.Context, userID, conversationID string) error
}

// ConversationReader loads conversations owned by a user.
type ConversationReader interface {
	Get(ctx context.Context, userID, id string) (*conversation.Conversation, error)
}
