package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"ruleout-server/internal/utils/idgen"
	"ruleout-server/internal/utils/platformerrors"
	"ruleout-server/internal/utils/stringutils"
)

// Service implements conversation operations scoped to the owning user.
type Service struct {
	repo     Repository
	projects ProjectDetacher
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a conversation service.
func NewService(repo Repository, projects ProjectDetacher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		log:      log.With().Str("component", "conversation-service").Logger(),
		now:      time.Now,
	}
}

// Create starts an empty, untitled conversation.
func (s *Service) Create(ctx context.Context, userID string) (*Conversation, error) {
	if userID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "user is required", nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f01")
	}
	id, err := idgen.New(idgen.PrefixConversation)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate conversation id", err, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f02")
	}
	now := s.now().UTC()
	conv := &Conversation{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// Get returns the conversation with its messages.
func (s *Service) Get(ctx context.Context, userID, id string) (*Conversation, error) {
	if !idgen.ValidateIDFormat(id, idgen.PrefixConversation) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, fmt.Sprintf("conversation %s not found", id), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f03")
	}
	conv, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	return conv, nil
}

// List returns the user's conversations, most recently updated first.
func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]*Conversation, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)
	convs, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return convs, nil
}

// AddMessage appends msg to the transcript.
func (s *Service) AddMessage(ctx context.Context, userID, id string, msg Message) error {
	if msg.Role != RoleUser && msg.Role != RoleAssistant {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("invalid role %q", msg.Role), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f04")
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	msg.IsStreaming = false
	if err := s.repo.AppendMessages(ctx, id, msg); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to add message")
	}
	return nil
}

// UpdateTitle renames a conversation.
func (s *Service) UpdateTitle(ctx context.Context, userID, id, title string) (string, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "title must not be empty", nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f05")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("title exceeds %d characters", MaxTitleLength), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f06")
	case stringutils.HasControlChars(title):
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "title contains control characters", nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f07")
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return "", err
	}
	if err := s.repo.UpdateTitle(ctx, userID, id, title); err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update title")
	}
	return title, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return false, err
	}
	next := !conv.IsFavorite
	if err := s.repo.SetFavorite(ctx, userID, id, next); err != nil {
		return conv.IsFavorite, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update favorite")
	}
	return next, nil
}

// SetMessageFeedback applies a like/dislike press to a message and returns
// the resulting value.
func (s *Service) SetMessageFeedback(ctx context.Context, userID, id string, index int, fb Feedback) (Feedback, error) {
	if !fb.Valid() {
		return FeedbackNone, invalidFeedback(ctx, fb)
	}
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return FeedbackNone, err
	}
	msg, err := messageAt(ctx, conv, index)
	if err != nil {
		return FeedbackNone, err
	}
	msg.Feedback = msg.Feedback.Toggle(fb)
	if err := s.repo.UpdateMessage(ctx, id, index, msg); err != nil {
		return FeedbackNone, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save feedback")
	}
	return msg.Feedback, nil
}

// SetReferenceFeedback applies a like/dislike press to one cited reference.
func (s *Service) SetReferenceFeedback(ctx context.Context, userID, id string, msgIndex, refIndex int, fb Feedback) (Feedback, error) {
	if !fb.Valid() {
		return FeedbackNone, invalidFeedback(ctx, fb)
	}
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return FeedbackNone, err
	}
	msg, err := messageAt(ctx, conv, msgIndex)
	if err != nil {
		return FeedbackNone, err
	}
	if refIndex < 0 || refIndex >= len(msg.References) {
		return FeedbackNone, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("reference index %d out of range", refIndex), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f08")
	}
	msg.References[refIndex].Feedback = msg.References[refIndex].Feedback.Toggle(fb)
	if err := s.repo.UpdateMessage(ctx, id, msgIndex, msg); err != nil {
		return FeedbackNone, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save reference feedback")
	}
	return msg.References[refIndex].Feedback, nil
}

// TruncateMessages keeps messages [0, from).
func (s *Service) TruncateMessages(ctx context.Context, userID, id string, from int) error {
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if from < 0 || from > len(conv.Messages) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("message index %d out of range", from), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f09")
	}
	if from == len(conv.Messages) {
		return nil
	}
	if err := s.repo.TruncateMessages(ctx, id, from); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to truncate messages")
	}
	return nil
}

// ClearFollowups removes suggested questions from every message.
func (s *Service) ClearFollowups(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.ClearFollowups(ctx, id, -1); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to clear followups")
	}
	return nil
}

// SetFollowups stores questions on one assistant message and clears them
// from all others, so at most one message carries followups.
func (s *Service) SetFollowups(ctx context.Context, userID, id string, index int, questions []string) error {
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	msg, err := messageAt(ctx, conv, index)
	if err != nil {
		return err
	}
	if msg.Role != RoleAssistant {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "followups belong to assistant messages", nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f0a")
	}
	if err := s.repo.ClearFollowups(ctx, id, index); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to clear followups")
	}
	msg.FollowupQuestions = append([]string(nil), questions...)
	if err := s.repo.UpdateMessage(ctx, id, index, msg); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save followups")
	}
	return nil
}

// SetContextChunks stores the opaque continuation payload from the last turn.
func (s *Service) SetContextChunks(ctx context.Context, userID, id string, raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "context chunks are not valid JSON", nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f0b")
	}
	if err := s.repo.SetContextChunks(ctx, userID, id, raw); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save context chunks")
	}
	return nil
}

// Delete removes the conversation and detaches it from the user's projects.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if s.projects != nil {
		if err := s.projects.DetachConversation(ctx, userID, id); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to detach conversation from projects")
		}
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	s.log.Debug().Str("conversation_id", id).Msg("conversation deleted")
	return nil
}

// CopyAnswer renders an assistant message with its reference list as plain text.
func (s *Service) CopyAnswer(ctx context.Context, userID, id string, index int) (string, error) {
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	msg, err := messageAt(ctx, conv, index)
	if err != nil {
		return "", err
	}
	return FormatCopy(msg), nil
}

func messageAt(ctx context.Context, conv *Conversation, index int) (Message, error) {
	if index < 0 || index >= len(conv.Messages) {
		return Message{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("message index %d out of range", index), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f0c")
	}
	return conv.Messages[index].Clone(), nil
}

func invalidFeedback(ctx context.Context, fb Feedback) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("invalid feedback %q", fb), nil, "5b8f0a3e-1c7d-4e22-9f0b-3a6c1d2e4f0d")
}
