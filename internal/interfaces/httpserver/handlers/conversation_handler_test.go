package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/utils/platformerrors"
)

func setupConversationRouter(svc *MockConversationService, projects handlers.ProjectLister) http.Handler {
	r, v1 := newTestRouter()
	h := handlers.NewConversationHandler(svc, projects, zerolog.Nop())
	v1.GET("/conversations", h.List)
	v1.POST("/conversations", h.Create)
	v1.GET("/conversations/:id", h.Get)
	v1.PATCH("/conversations/:id", h.Update)
	v1.DELETE("/conversations/:id", h.Delete)
	v1.POST("/conversations/:id/favorite", h.ToggleFavorite)
	v1.POST("/conversations/:id/messages/:index/feedback", h.MessageFeedback)
	v1.POST("/conversations/:id/messages/:index/references/:ref/feedback", h.ReferenceFeedback)
	v1.GET("/conversations/:id/messages/:index/copy", h.Copy)
	return r
}

func authed(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Debug-User", "uid-1")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestConversationHandler_RequiresUser(t *testing.T) {
	router := setupConversationRouter(&MockConversationService{}, &MockProjectService{})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/v1/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConversationHandler_List(t *testing.T) {
	var filter conversation.Filter
	svc := &MockConversationService{
		ListFunc: func(ctx context.Context, userID string, f conversation.Filter) ([]*conversation.Conversation, error) {
			assert.Equal(t, "uid-1", userID)
			filter = f
			return []*conversation.Conversation{
				{ID: "conv_1", Title: "Xylitol", IsFavorite: true, Messages: make([]conversation.Message, 2)},
			}, nil
		},
	}

	w := serve(setupConversationRouter(svc, nil), authed(http.MethodGet, "/v1/conversations?favorites=true&search=xyl&limit=10", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, conversation.Filter{FavoritesOnly: true, Search: "xyl", Limit: 10}, filter)

	var resp struct {
		Data []struct {
			ID           string `json:"id"`
			MessageCount int    `json:"message_count"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "conv_1", resp.Data[0].ID)
	assert.Equal(t, 2, resp.Data[0].MessageCount)
}

func TestConversationHandler_GetIncludesProjectsAndSegments(t *testing.T) {
	svc := &MockConversationService{
		GetFunc: func(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
			return &conversation.Conversation{
				ID:    id,
				Title: "Xylitol",
				Messages: []conversation.Message{
					{Role: conversation.RoleUser, Content: "Is xylitol toxic?", Timestamp: time.Now()},
					{Role: conversation.RoleAssistant, Content: "Yes [1].", Timestamp: time.Now()},
				},
			}, nil
		},
	}
	projects := &MockProjectService{
		ListFunc: func(ctx context.Context, userID string) ([]*project.Project, error) {
			return []*project.Project{
				{ID: "proj_a", ConversationIDs: []string{"conv_9"}},
				{ID: "proj_b", ConversationIDs: []string{"conv_1", "conv_9"}},
			}, nil
		},
	}

	w := serve(setupConversationRouter(svc, projects), authed(http.MethodGet, "/v1/conversations/conv_1", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ProjectIDs []string `json:"project_ids"`
		Messages   []struct {
			Role     string           `json:"role"`
			Segments []map[string]any `json:"segments"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"proj_b"}, resp.ProjectIDs)
	require.Len(t, resp.Messages, 2)
	assert.Empty(t, resp.Messages[0].Segments)
	assert.NotEmpty(t, resp.Messages[1].Segments)
}

func TestConversationHandler_GetNotFound(t *testing.T) {
	svc := &MockConversationService{
		GetFunc: func(ctx context.Context, userID, id string) (*conversation.Conversation, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "nf-uuid")
		},
	}

	w := serve(setupConversationRouter(svc, &MockProjectService{}), authed(http.MethodGet, "/v1/conversations/conv_x", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationHandler_Update(t *testing.T) {
	svc := &MockConversationService{
		UpdateTitleFunc: func(ctx context.Context, userID, id, title string) (string, error) {
			return strings.TrimSpace(title), nil
		},
	}
	router := setupConversationRouter(svc, nil)

	w := serve(router, authed(http.MethodPatch, "/v1/conversations/conv_1", `{"title":"  Renamed  "}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"conv_1","title":"Renamed"}`, w.Body.String())

	w = serve(router, authed(http.MethodPatch, "/v1/conversations/conv_1", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_MessageFeedback(t *testing.T) {
	svc := &MockConversationService{
		SetMessageFeedbackFunc: func(ctx context.Context, userID, id string, index int, fb conversation.Feedback) (conversation.Feedback, error) {
			assert.Equal(t, 3, index)
			return conversation.FeedbackNone, nil
		},
	}
	router := setupConversationRouter(svc, nil)

	w := serve(router, authed(http.MethodPost, "/v1/conversations/conv_1/messages/3/feedback", `{"feedback":"like"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"feedback":""}`, w.Body.String())

	w = serve(router, authed(http.MethodPost, "/v1/conversations/conv_1/messages/x/feedback", `{"feedback":"like"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, authed(http.MethodPost, "/v1/conversations/conv_1/messages/3/feedback", `{"feedback":"love"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_ReferenceFeedback(t *testing.T) {
	svc := &MockConversationService{
		SetReferenceFeedbackFunc: func(ctx context.Context, userID, id string, msgIndex, refIndex int, fb conversation.Feedback) (conversation.Feedback, error) {
			assert.Equal(t, 1, msgIndex)
			assert.Equal(t, 0, refIndex)
			return fb, nil
		},
	}

	w := serve(setupConversationRouter(svc, nil), authed(http.MethodPost, "/v1/conversations/conv_1/messages/1/references/0/feedback", `{"feedback":"dislike"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"feedback":"dislike"}`, w.Body.String())
}

func TestConversationHandler_CopyAndFavorite(t *testing.T) {
	svc := &MockConversationService{
		CopyAnswerFunc: func(ctx context.Context, userID, id string, index int) (string, error) {
			return "Yes.\n\nReferences:\n1. Xylitol", nil
		},
		ToggleFavoriteFunc: func(ctx context.Context, userID, id string) (bool, error) {
			return true, nil
		},
	}
	router := setupConversationRouter(svc, nil)

	w := serve(router, authed(http.MethodGet, "/v1/conversations/conv_1/messages/1/copy", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"Yes.\n\nReferences:\n1. Xylitol"}`, w.Body.String())

	w = serve(router, authed(http.MethodPost, "/v1/conversations/conv_1/favorite", ""))
	assert.JSONEq(t, `{"is_favorite":true}`, w.Body.String())
}

func TestConversationHandler_Delete(t *testing.T) {
	deleted := ""
	svc := &MockConversationService{
		DeleteFunc: func(ctx context.Context, userID, id string) error {
			deleted = id
			return nil
		},
	}

	w := serve(setupConversationRouter(svc, nil), authed(http.MethodDelete, "/v1/conversations/conv_1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "conv_1", deleted)
	assert.JSONEq(t, `{"id":"conv_1","deleted":true}`, w.Body.String())
}
