package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func setupProjectRouter(svc *MockProjectService) http.Handler {
	r, v1 := newTestRouter()
	h := handlers.NewProjectHandler(svc, zerolog.Nop())
	v1.GET("/projects", h.List)
	v1.POST("/projects", h.Create)
	v1.GET("/projects/:id", h.Get)
	v1.PATCH("/projects/:id", h.Update)
	v1.DELETE("/projects/:id", h.Delete)
	v1.GET("/projects/:id/conversations", h.ListConversations)
	v1.PUT("/projects/:id/conversations/:conversation_id", h.AddConversation)
	v1.DELETE("/projects/:id/conversations/:conversation_id", h.RemoveConversation)
	return r
}

func TestProjectHandler_Create(t *testing.T) {
	svc := &MockProjectService{
		CreateFunc: func(ctx context.Context, userID, title, description string, lang locale.Language) (*project.Project, error) {
			assert.Equal(t, locale.Korean, lang)
			return &project.Project{ID: "proj_1", Title: "새 프로젝트", ConversationIDs: []string{}}, nil
		},
	}

	w := serve(setupProjectRouter(svc), authed(http.MethodPost, "/v1/projects", `{"language":"ko"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"새 프로젝트"`)
	assert.NotContains(t, w.Body.String(), "uid-1")
}

func TestProjectHandler_UpdateAppliesBothFields(t *testing.T) {
	var calls []string
	svc := &MockProjectService{
		UpdateTitleFunc: func(ctx context.Context, userID, id, title string) (*project.Project, error) {
			calls = append(calls, "title:"+title)
			return &project.Project{ID: id, Title: title}, nil
		},
		UpdateDescriptionFunc: func(ctx context.Context, userID, id, description string) (*project.Project, error) {
			calls = append(calls, "description:"+description)
			return &project.Project{ID: id, Title: "Cases", Description: description}, nil
		},
	}
	router := setupProjectRouter(svc)

	w := serve(router, authed(http.MethodPatch, "/v1/projects/proj_1", `{"title":"Cases","description":"GI workups"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"title:Cases", "description:GI workups"}, calls)
	assert.Contains(t, w.Body.String(), `"description":"GI workups"`)

	w = serve(router, authed(http.MethodPatch, "/v1/projects/proj_1", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_Membership(t *testing.T) {
	members := []string{}
	svc := &MockProjectService{
		AddConversationFunc: func(ctx context.Context, userID, id, conversationID string) (*project.Project, error) {
			members = append(members, conversationID)
			return &project.Project{ID: id, ConversationIDs: members}, nil
		},
		RemoveConversationFunc: func(ctx context.Context, userID, id, conversationID string) (*project.Project, error) {
			return &project.Project{ID: id, ConversationIDs: []string{}}, nil
		},
		ListConversationsFunc: func(ctx context.Context, userID, id string) ([]*conversation.Conversation, error) {
			return []*conversation.Conversation{{ID: "conv_1", Title: "Xylitol"}}, nil
		},
	}
	router := setupProjectRouter(svc)

	w := serve(router, authed(http.MethodPut, "/v1/projects/proj_1/conversations/conv_1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"conversation_ids":["conv_1"]`)

	w = serve(router, authed(http.MethodGet, "/v1/projects/proj_1/conversations", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"conv_1"`)

	w = serve(router, authed(http.MethodDelete, "/v1/projects/proj_1/conversations/conv_1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"conversation_ids":[]`)
}
