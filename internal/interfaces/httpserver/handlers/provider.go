package handlers

import (
	"github.com/rs/zerolog"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat          *ChatHandler
	Conversations *ConversationHandler
	Projects      *ProjectHandler
	Recordings    *RecordingHandler
	Users         *UserHandler
	Guest         *GuestHandler
	Blog          *BlogHandler
	Careers       *CareersHandler
	// Files is nil unless objects are stored on the local filesystem.
	Files *FileHandler
}

// Services groups the domain services the handlers depend on.
type Services struct {
	Chat          ChatService
	Conversations ConversationService
	Projects      ProjectService
	Recordings    RecordingService
	Users         UserService
	Guest         GuestQuotaReader
	Blog          BlogReader
	Careers       CareersService
	Files         ObjectOpener
	Jobs          JobRunner
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(svc Services, log zerolog.Logger) *Provider {
	p := &Provider{
		Chat:          NewChatHandler(svc.Chat, log),
		Conversations: NewConversationHandler(svc.Conversations, svc.Projects, log),
		Projects:      NewProjectHandler(svc.Projects, log),
		Recordings:    NewRecordingHandler(svc.Recordings, svc.Jobs, log),
		Users:         NewUserHandler(svc.Users, log),
		Guest:         NewGuestHandler(svc.Guest, log),
		Blog:          NewBlogHandler(svc.Blog, log),
		Careers:       NewCareersHandler(svc.Careers, log),
	}
	if svc.Files != nil {
		p.Files = NewFileHandler(svc.Files, log)
	}
	return p
}
