package handlers_test

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/blog"
	"ruleout-server/internal/domain/careers"
	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/guest"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/domain/user"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
)

type MockChatService struct {
	StreamFunc   func(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error)
	CompleteFunc func(ctx context.Context, req chat.StreamRequest) (*chat.CompleteResponse, error)
	CancelFunc   func(streamID, userID, guestID string) bool
}

func (m *MockChatService) Stream(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req, sink)
	}
	return chat.Outcome{}, nil
}

func (m *MockChatService) Complete(ctx context.Context, req chat.StreamRequest) (*chat.CompleteResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &chat.CompleteResponse{}, nil
}

func (m *MockChatService) Cancel(streamID, userID, guestID string) bool {
	if m.CancelFunc != nil {
		return m.CancelFunc(streamID, userID, guestID)
	}
	return false
}

type MockConversationService struct {
	CreateFunc               func(ctx context.Context, userID string) (*conversation.Conversation, error)
	GetFunc                  func(ctx context.Context, userID, id string) (*conversation.Conversation, error)
	ListFunc                 func(ctx context.Context, userID string, filter conversation.Filter) ([]*conversation.Conversation, error)
	UpdateTitleFunc          func(ctx context.Context, userID, id, title string) (string, error)
	ToggleFavoriteFunc       func(ctx context.Context, userID, id string) (bool, error)
	SetMessageFeedbackFunc   func(ctx context.Context, userID, id string, index int, fb conversation.Feedback) (conversation.Feedback, error)
	SetReferenceFeedbackFunc func(ctx context.Context, userID, id string, msgIndex, refIndex int, fb conversation.Feedback) (conversation.Feedback, error)
	DeleteFunc               func(ctx context.Context, userID, id string) error
	CopyAnswerFunc           func(ctx context.Context, userID, id string, index int) (string, error)
}

func (m *MockConversationService) Create(ctx context.Context, userID string) (*conversation.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConversationService) Get(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *MockConversationService) List(ctx context.Context, userID string, filter conversation.Filter) ([]*conversation.Conversation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockConversationService) UpdateTitle(ctx context.Context, userID, id, title string) (string, error) {
	if m.UpdateTitleFunc != nil {
		return m.UpdateTitleFunc(ctx, userID, id, title)
	}
	return title, nil
}

func (m *MockConversationService) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	if m.ToggleFavoriteFunc != nil {
		return m.ToggleFavoriteFunc(ctx, userID, id)
	}
	return false, nil
}

func (m *MockConversationService) SetMessageFeedback(ctx context.Context, userID, id string, index int, fb conversation.Feedback) (conversation.Feedback, error) {
	if m.SetMessageFeedbackFunc != nil {
		return m.SetMessageFeedbackFunc(ctx, userID, id, index, fb)
	}
	return fb, nil
}

func (m *MockConversationService) SetReferenceFeedback(ctx context.Context, userID, id string, msgIndex, refIndex int, fb conversation.Feedback) (conversation.Feedback, error) {
	if m.SetReferenceFeedbackFunc != nil {
		return m.SetReferenceFeedbackFunc(ctx, userID, id, msgIndex, refIndex, fb)
	}
	return fb, nil
}

func (m *MockConversationService) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockConversationService) CopyAnswer(ctx context.Context, userID, id string, index int) (string, error) {
	if m.CopyAnswerFunc != nil {
		return m.CopyAnswerFunc(ctx, userID, id, index)
	}
	return "", nil
}

type MockProjectService struct {
	CreateFunc             func(ctx context.Context, userID, title, description string, lang locale.Language) (*project.Project, error)
	GetFunc                func(ctx context.Context, userID, id string) (*project.Project, error)
	ListFunc               func(ctx context.Context, userID string) ([]*project.Project, error)
	AddConversationFunc    func(ctx context.Context, userID, id, conversationID string) (*project.Project, error)
	RemoveConversationFunc func(ctx context.Context, userID, id, conversationID string) (*project.Project, error)
	UpdateTitleFunc        func(ctx context.Context, userID, id, title string) (*project.Project, error)
	UpdateDescriptionFunc  func(ctx context.Context, userID, id, description string) (*project.Project, error)
	DeleteFunc             func(ctx context.Context, userID, id string) error
	ListConversationsFunc  func(ctx context.Context, userID, id string) ([]*conversation.Conversation, error)
}

func (m *MockProjectService) Create(ctx context.Context, userID, title, description string, lang locale.Language) (*project.Project, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, title, description, lang)
	}
	return nil, nil
}

func (m *MockProjectService) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *MockProjectService) List(ctx context.Context, userID string) ([]*project.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockProjectService) AddConversation(ctx context.Context, userID, id, conversationID string) (*project.Project, error) {
	if m.AddConversationFunc != nil {
		return m.AddConversationFunc(ctx, userID, id, conversationID)
	}
	return nil, nil
}

func (m *MockProjectService) RemoveConversation(ctx context.Context, userID, id, conversationID string) (*project.Project, error) {
	if m.RemoveConversationFunc != nil {
		return m.RemoveConversationFunc(ctx, userID, id, conversationID)
	}
	return nil, nil
}

func (m *MockProjectService) UpdateTitle(ctx context.Context, userID, id, title string) (*project.Project, error) {
	if m.UpdateTitleFunc != nil {
		return m.UpdateTitleFunc(ctx, userID, id, title)
	}
	return nil, nil
}

func (m *MockProjectService) UpdateDescription(ctx context.Context, userID, id, description string) (*project.Project, error) {
	if m.UpdateDescriptionFunc != nil {
		return m.UpdateDescriptionFunc(ctx, userID, id, description)
	}
	return nil, nil
}

func (m *MockProjectService) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockProjectService) ListConversations(ctx context.Context, userID, id string) ([]*conversation.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID, id)
	}
	return nil, nil
}

type MockRecordingService struct {
	ProcessFunc func(ctx context.Context, req recording.ProcessRequest, progress func(recording.Progress)) (*recording.Recording, error)
	ListFunc    func(ctx context.Context, userID string) ([]*recording.Recording, error)
	GetFunc     func(ctx context.Context, userID, id string) (*recording.Recording, error)
	DeleteFunc  func(ctx context.Context, userID, id string) error
}

func (m *MockRecordingService) Process(ctx context.Context, req recording.ProcessRequest, progress func(recording.Progress)) (*recording.Recording, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, req, progress)
	}
	return nil, nil
}

func (m *MockRecordingService) List(ctx context.Context, userID string) ([]*recording.Recording, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRecordingService) Get(ctx context.Context, userID, id string) (*recording.Recording, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *MockRecordingService) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

type MockUserService struct {
	RecordLoginFunc    func(ctx context.Context, login user.Login) (*user.User, error)
	GetFunc            func(ctx context.Context, uid string) (*user.User, error)
	UpdateSettingsFunc func(ctx context.Context, uid string, settings user.Settings) (*user.User, error)
}

func (m *MockUserService) RecordLogin(ctx context.Context, login user.Login) (*user.User, error) {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, login)
	}
	return nil, nil
}

func (m *MockUserService) Get(ctx context.Context, uid string) (*user.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, uid)
	}
	return nil, nil
}

func (m *MockUserService) UpdateSettings(ctx context.Context, uid string, settings user.Settings) (*user.User, error) {
	if m.UpdateSettingsFunc != nil {
		return m.UpdateSettingsFunc(ctx, uid, settings)
	}
	return nil, nil
}

type MockGuestQuota struct {
	QuotaFunc func(ctx context.Context, guestID string) (guest.Quota, error)
	LimitN    int
}

func (m *MockGuestQuota) Quota(ctx context.Context, guestID string) (guest.Quota, error) {
	if m.QuotaFunc != nil {
		return m.QuotaFunc(ctx, guestID)
	}
	return guest.Quota{}, nil
}

func (m *MockGuestQuota) Limit() int { return m.LimitN }

type MockBlogReader struct {
	ListFunc     func(ctx context.Context, category string) ([]*blog.Post, error)
	FeaturedFunc func(ctx context.Context) (*blog.Post, error)
	BySlugFunc   func(ctx context.Context, slug string) (*blog.Post, error)
}

func (m *MockBlogReader) List(ctx context.Context, category string) ([]*blog.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category)
	}
	return nil, nil
}

func (m *MockBlogReader) Featured(ctx context.Context) (*blog.Post, error) {
	if m.FeaturedFunc != nil {
		return m.FeaturedFunc(ctx)
	}
	return nil, nil
}

func (m *MockBlogReader) BySlug(ctx context.Context, slug string) (*blog.Post, error) {
	if m.BySlugFunc != nil {
		return m.BySlugFunc(ctx, slug)
	}
	return nil, nil
}

type MockCareersService struct {
	SubmitFunc func(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error)
}

func (m *MockCareersService) Submit(ctx context.Context, app careers.Application, resume *careers.Resume) (*careers.Submission, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, app, resume)
	}
	return &careers.Submission{}, nil
}

type MockObjectOpener struct {
	OpenFunc func(ctx context.Context, key string) (io.ReadCloser, string, error)
}

func (m *MockObjectOpener) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, key)
	}
	return nil, "", nil
}

// newTestRouter returns an engine whose routes see X-Debug-User as the
// signed-in user and everyone else as a guest.
func newTestRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.RequestID())
	authn := middlewares.NewAuthenticator(nil, false, zerolog.Nop())
	return r, r.Group("/v1", authn.OptionalAuth())
}
