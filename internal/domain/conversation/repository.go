package conversation

import (
	"context"
	"encoding/json"
)

// Repository persists conversations and their messages. Messages are addressed
// by zero-based position.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	// Get returns the conversation owned by userID including messages.
	Get(ctx context.Context, userID, id string) (*Conversation, error)
	// List returns conversations without messages.
	List(ctx context.Context, userID string, filter Filter) ([]*Conversation, error)
	UpdateTitle(ctx context.Context, userID, id, title string) error
	SetFavorite(ctx context.Context, userID, id string, favorite bool) error
	SetContextChunks(ctx context.Context, userID, id string, raw json.RawMessage) error
	AppendMessages(ctx context.Context, id string, messages ...Message) error
	UpdateMessage(ctx context.Context, id string, index int, msg Message) error
	TruncateMessages(ctx context.Context, id string, from int) error
	// ClearFollowups removes followups from every message except keep. A
	// negative keep clears them all.
	ClearFollowups(ctx context.Context, id string, keep int) error
	Delete(ctx context.Context, userID, id string) error
}

// ProjectDetacher removes a conversation from every project of its owner.
type ProjectDetacher interface {
	DetachConversation(ctx context.Context, userID, conversationID string) error
}
