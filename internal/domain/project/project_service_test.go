package project_test

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/utils/platformerrors"
)

type memProjects struct {
	items map[string]*project.Project
}

func (m *memProjects) notFound() error {
	return platformerrors.NewError(context.Background(), platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "project not found", nil, "")
}

func (m *memProjects) Create(_ context.Context, proj *project.Project) error {
	copied := *proj
	m.items[proj.ID] = &copied
	return nil
}

func (m *memProjects) Get(_ context.Context, userID, id string) (*project.Project, error) {
	proj, ok := m.items[id]
	if !ok || proj.UserID != userID {
		return nil, m.notFound()
	}
	copied := *proj
	copied.ConversationIDs = append([]string(nil), proj.ConversationIDs...)
	return &copied, nil
}

func (m *memProjects) List(_ context.Context, userID string) ([]*project.Project, error) {
	var out []*project.Project
	for _, p := range m.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memProjects) Update(_ context.Context, proj *project.Project) error {
	copied := *proj
	m.items[proj.ID] = &copied
	return nil
}

func (m *memProjects) Delete(_ context.Context, _ string, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memProjects) DetachConversation(_ context.Context, userID, conversationID string) error {
	return nil
}

type memConversations map[string]*conversation.Conversation

func (m memConversations) Get(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
	conv, ok := m[id]
	if !ok || conv.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
	}
	return conv, nil
}

func setup() (*project.Service, *memProjects, memConversations) {
	repo := &memProjects{items: map[string]*project.Project{}}
	convs := memConversations{
		"conv_a": {ID: "conv_a", UserID: "u", Title: "A"},
		"conv_b": {ID: "conv_b", UserID: "u", Title: "B"},
		"conv_z": {ID: "conv_z", UserID: "other"},
	}
	return project.NewService(repo, convs, zerolog.Nop()), repo, convs
}

func TestCreateDefaultsTitle(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	proj, err := svc.Create(ctx, "u", "  ", "", locale.Korean)
	require.NoError(t, err)
	assert.Equal(t, "새 프로젝트", proj.Title)
	assert.True(t, strings.HasPrefix(proj.ID, "proj_"))
	assert.NotNil(t, proj.ConversationIDs)

	proj, err = svc.Create(ctx, "u", "", "", locale.English)
	require.NoError(t, err)
	assert.Equal(t, "New Project", proj.Title)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u", strings.Repeat("x", 121), "", locale.English)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = svc.Create(ctx, "u", "ok", strings.Repeat("d", 2001), locale.English)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = svc.Create(ctx, "u", "bad\x00title", "", locale.English)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestAddConversationIsSetUnion(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()
	proj, err := svc.Create(ctx, "u", "Cardiology", "", locale.English)
	require.NoError(t, err)

	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)
	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_b")
	require.NoError(t, err)
	updated, err := svc.AddConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"conv_a", "conv_b"}, updated.ConversationIDs)

	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_z")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestRemoveConversationKeepsConversation(t *testing.T) {
	svc, _, convs := setup()
	ctx := context.Background()
	proj, err := svc.Create(ctx, "u", "Cardiology", "", locale.English)
	require.NoError(t, err)
	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)

	updated, err := svc.RemoveConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)
	assert.Empty(t, updated.ConversationIDs)

	updated, err = svc.RemoveConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)
	assert.Empty(t, updated.ConversationIDs)
	assert.Contains(t, convs, "conv_a")
}

func TestListConversationsSkipsDangling(t *testing.T) {
	svc, repo, convs := setup()
	ctx := context.Background()
	proj, err := svc.Create(ctx, "u", "Derm", "", locale.English)
	require.NoError(t, err)
	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_b")
	require.NoError(t, err)
	_, err = svc.AddConversation(ctx, "u", proj.ID, "conv_a")
	require.NoError(t, err)

	repo.items[proj.ID].ConversationIDs = append(repo.items[proj.ID].ConversationIDs, "conv_gone")
	delete(convs, "conv_gone")

	list, err := svc.ListConversations(ctx, "u", proj.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "conv_b", list[0].ID)
	assert.Equal(t, "conv_a", list[1].ID)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, repo, _ := setup()
	ctx := context.Background()
	proj, err := svc.Create(ctx, "u", "Old", "", locale.English)
	require.NoError(t, err)

	updated, err := svc.UpdateTitle(ctx, "u", proj.ID, " New ")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)

	updated, err = svc.UpdateDescription(ctx, "u", proj.ID, "Line one\nLine two")
	require.NoError(t, err)
	assert.Equal(t, "Line one\nLine two", updated.Description)

	_, err = svc.Get(ctx, "someone-else", proj.ID)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	require.NoError(t, svc.Delete(ctx, "u", proj.ID))
	assert.Empty(t, repo.items)
}
