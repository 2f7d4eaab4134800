package project

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/utils/idgen"
	"ruleout-server/internal/utils/platformerrors"
)

const conversationLookupConcurrency = 8

// Service handles project business logic.
type Service struct {
	repo          Repository
	conversations ConversationReader
	validator     *Validator
	log           zerolog.Logger
	now           func() time.Time
}

// NewService creates a project service.
func NewService(repo Repository, conversations ConversationReader, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		conversations: conversations,
		validator:     NewValidator(nil),
		log:           log.With().Str("component", "project-service").Logger(),
		now:           time.Now,
	}
}

// Create makes an empty project. A blank title becomes the localized
// default project name.
func (s *Service) Create(ctx context.Context, userID, title, description string, lang locale.Language) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = locale.Text(locale.KeyDefaultProject, lang)
	}
	if err := s.validator.ValidateTitle(title); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c01")
	}
	if err := s.validator.ValidateDescription(description); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c02")
	}

	id, err := idgen.New(idgen.PrefixProject)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate project id", err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c03")
	}
	now := s.now().UTC()
	proj := &Project{
		ID:              id,
		UserID:          userID,
		Title:           title,
		Description:     description,
		ConversationIDs: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create project")
	}
	return proj, nil
}

// Get retrieves a project owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Project, error) {
	if err := s.validator.ValidateID(id); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "project not found", err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c04")
	}
	proj, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "project not found")
	}
	return proj, nil
}

// List returns the user's projects, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]*Project, error) {
	projects, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list projects")
	}
	return projects, nil
}

// AddConversation puts a conversation into the project. Adding a member a
// second time changes nothing but the timestamp.
func (s *Service) AddConversation(ctx context.Context, userID, id, conversationID string) (*Project, error) {
	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if !proj.HasConversation(conversationID) {
		proj.ConversationIDs = append(proj.ConversationIDs, conversationID)
	}
	return s.save(ctx, proj)
}

// RemoveConversation takes a conversation out of the project. The
// conversation itself is kept.
func (s *Service) RemoveConversation(ctx context.Context, userID, id, conversationID string) (*Project, error) {
	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(proj.ConversationIDs))
	for _, cid := range proj.ConversationIDs {
		if cid != conversationID {
			kept = append(kept, cid)
		}
	}
	proj.ConversationIDs = kept
	return s.save(ctx, proj)
}

// UpdateTitle renames the project.
func (s *Service) UpdateTitle(ctx context.Context, userID, id, title string) (*Project, error) {
	title = strings.TrimSpace(title)
	if err := s.validator.ValidateTitle(title); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c05")
	}
	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	proj.Title = title
	return s.save(ctx, proj)
}

// UpdateDescription replaces the description.
func (s *Service) UpdateDescription(ctx context.Context, userID, id, description string) (*Project, error) {
	if err := s.validator.ValidateDescription(description); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "3d7a9b2c-6e1f-4a8b-9c0d-2e3f4a5b6c06")
	}
	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	proj.Description = description
	return s.save(ctx, proj)
}

// Delete removes the project. Its conversations stay.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete project")
	}
	return nil
}

// ListConversations returns the project's conversations in membership
// order. Members that no longer exist are skipped.
func (s *Service) ListConversations(ctx context.Context, userID, id string) ([]*conversation.Conversation, error) {
	proj, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	found := make([]*conversation.Conversation, len(proj.ConversationIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conversationLookupConcurrency)
	for i, cid := range proj.ConversationIDs {
		g.Go(func() error {
			conv, err := s.conversations.Get(gctx, userID, cid)
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
				s.log.Debug().Str("project_id", id).Str("conversation_id", cid).Msg("skipping dangling conversation")
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = conv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load project conversations")
	}

	out := make([]*conversation.Conversation, 0, len(found))
	for _, conv := range found {
		if conv != nil {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, proj *Project) (*Project, error) {
	proj.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, proj); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update project")
	}
	return proj, nil
}
