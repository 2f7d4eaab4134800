package requests

import (
	"encoding/json"

	"ruleout-server/internal/domain/chat"
)

// ChatRequest starts a chat turn.
type ChatRequest struct {
	Question            string `json:"question" binding:"max=8000"`
	ConversationID      string `json:"conversation_id" binding:"omitempty,max=64"`
	Language            string `json:"language" binding:"omitempty,max=16"`
	RewriteMessageIndex *int   `json:"rewrite_message_index" binding:"omitempty,min=1"`
	// ConversationHistory and ContextChunks are used by turns that have no
	// stored conversation, such as guest chats.
	ConversationHistory []chat.HistoryEntry `json:"conversation_history" binding:"omitempty,max=50,dive"`
	ContextChunks       json.RawMessage     `json:"previous_context_chunks" swaggertype:"object"`
}

// ListConversationsQuery filters the conversation list.
type ListConversationsQuery struct {
	Favorites bool   `form:"favorites"`
	Search    string `form:"search" binding:"max=200"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// UpdateConversationRequest renames a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title" binding:"required,max=500"`
}

// FeedbackRequest sets or toggles a like/dislike.
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"omitempty,oneof=like dislike"`
}

// CreateProjectRequest creates a project.
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"max=500"`
	Description string `json:"description" binding:"max=8000"`
	Language    string `json:"language" binding:"omitempty,max=16"`
}

// UpdateProjectRequest changes a project's title or description.
type UpdateProjectRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=500"`
	Description *string `json:"description" binding:"omitempty,max=8000"`
}

// UpdateUserRequest is a partial profile update.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=400"`
	Username    *string `json:"username" binding:"omitempty,max=200"`
}

// LoginRequest optionally carries profile fields the token lacks.
type LoginRequest struct {
	DisplayName string `json:"display_name" binding:"max=400"`
	PhotoURL    string `json:"photo_url" binding:"omitempty,url,max=2048"`
}

// BlogListQuery filters blog posts.
type BlogListQuery struct {
	Category string `form:"category" binding:"max=100"`
}

// CareerApplicationForm is the multipart form of a job application. The
// résumé arrives as the "resume" file part.
type CareerApplicationForm struct {
	FullName    string `form:"full_name" binding:"max=200"`
	Email       string `form:"email" binding:"max=320"`
	Phone       string `form:"phone" binding:"max=50"`
	CoverLetter string `form:"cover_letter" binding:"max=20000"`
	LinkedIn    string `form:"linkedin" binding:"max=2048"`
	Portfolio   string `form:"portfolio" binding:"max=2048"`
}

// RecordingForm accompanies the "audio" file part of a recording upload.
type RecordingForm struct {
	RecordedSeconds float64 `form:"recorded_seconds" binding:"min=0"`
	// Timezone is an IANA zone name used to format the recording date.
	Timezone string `form:"timezone" binding:"max=64"`
}
