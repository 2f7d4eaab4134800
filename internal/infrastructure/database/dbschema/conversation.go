package dbschema

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"ruleout-server/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID            string         `gorm:"primaryKey;size:64"`
	UserID        string         `gorm:"size:128;index:idx_conversations_user_updated;not null"`
	Title         string         `gorm:"size:255;not null;default:''"`
	IsFavorite    bool           `gorm:"not null;default:false"`
	ContextChunks datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Messages []ConversationMessage `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMessage is one transcript entry stored at a fixed position.
type ConversationMessage struct {
	ID                uint                                           `gorm:"primaryKey"`
	ConversationID    string                                         `gorm:"size:64;uniqueIndex:uq_conversation_messages_position;not null"`
	Position          int                                            `gorm:"uniqueIndex:uq_conversation_messages_position;not null"`
	Role              string                                         `gorm:"size:16;not null"`
	Content           string                                         `gorm:"type:text;not null"`
	MessageReferences datatypes.JSONSlice[conversation.Reference]    `gorm:"type:jsonb;not null"`
	FollowupQuestions datatypes.JSONSlice[string]                    `gorm:"type:jsonb;not null"`
	ThinkingSteps     datatypes.JSONSlice[conversation.ThinkingStep] `gorm:"type:jsonb;not null"`
	Feedback          string                                         `gorm:"size:16;not null;default:''"`
	IsOutOfScope      bool                                           `gorm:"not null;default:false"`
	CreatedAt         time.Time
}

// TableName specifies the table name for ConversationMessage
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	conv := &conversation.Conversation{
		ID:         c.ID,
		UserID:     c.UserID,
		Title:      c.Title,
		IsFavorite: c.IsFavorite,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if len(c.ContextChunks) > 0 {
		conv.ContextChunks = json.RawMessage(c.ContextChunks)
	}
	if c.Messages != nil {
		conv.Messages = make([]conversation.Message, len(c.Messages))
		for i := range c.Messages {
			conv.Messages[i] = c.Messages[i].EtoD()
		}
	}
	return conv
}

// NewSchemaConversation creates a database schema from domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	row := &Conversation{
		ID:         c.ID,
		UserID:     c.UserID,
		Title:      c.Title,
		IsFavorite: c.IsFavorite,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if len(c.ContextChunks) > 0 {
		row.ContextChunks = datatypes.JSON(c.ContextChunks)
	}
	return row
}

// EtoD converts a stored message to the domain message.
func (m *ConversationMessage) EtoD() conversation.Message {
	msg := conversation.Message{
		Role:         conversation.Role(m.Role),
		Content:      m.Content,
		Feedback:     conversation.Feedback(m.Feedback),
		IsOutOfScope: m.IsOutOfScope,
		Timestamp:    m.CreatedAt,
	}
	if len(m.MessageReferences) > 0 {
		msg.References = []conversation.Reference(m.MessageReferences)
	}
	if len(m.FollowupQuestions) > 0 {
		msg.FollowupQuestions = []string(m.FollowupQuestions)
	}
	if len(m.ThinkingSteps) > 0 {
		msg.ThinkingSteps = []conversation.ThinkingStep(m.ThinkingSteps)
	}
	return msg
}

// NewSchemaMessage creates the row for msg at position.
func NewSchemaMessage(conversationID string, position int, msg conversation.Message) *ConversationMessage {
	return &ConversationMessage{
		ConversationID:    conversationID,
		Position:          position,
		Role:              string(msg.Role),
		Content:           msg.Content,
		MessageReferences: nonNil(msg.References),
		FollowupQuestions: nonNil(msg.FollowupQuestions),
		ThinkingSteps:     nonNil(msg.ThinkingSteps),
		Feedback:          string(msg.Feedback),
		IsOutOfScope:      msg.IsOutOfScope,
		CreatedAt:         msg.Timestamp,
	}
}

func nonNil[T any](in []T) datatypes.JSONSlice[T] {
	if in == nil {
		return datatypes.JSONSlice[T]{}
	}
	return datatypes.JSONSlice[T](in)
}
