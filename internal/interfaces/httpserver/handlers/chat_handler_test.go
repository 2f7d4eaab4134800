package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/utils/platformerrors"
)

func setupChatRouter(svc *MockChatService) http.Handler {
	r, v1 := newTestRouter()
	h := handlers.NewChatHandler(svc, zerolog.Nop())
	v1.POST("/chat/stream", h.Stream)
	v1.POST("/chat", h.Complete)
	v1.POST("/chat/streams/:stream_id/cancel", h.Cancel)
	return r
}

func TestChatHandler_StreamWritesFramesAndDone(t *testing.T) {
	var got chat.StreamRequest
	svc := &MockChatService{
		StreamFunc: func(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error) {
			got = req
			require.NoError(t, sink.Send(chat.Frame{Type: chat.FrameStream, StreamID: "st_1"}))
			require.NoError(t, sink.Send(chat.Frame{Type: chat.FrameDelta, Chunk: "Hi", Content: "Hi"}))
			require.NoError(t, sink.Send(chat.Frame{Type: chat.FrameDone}))
			return chat.Outcome{Done: true}, nil
		},
	}

	body := `{"question":"Is xylitol toxic to dogs?","language":"ko","conversation_id":"conv_1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Debug-User", "uid-1")
	w := httptest.NewRecorder()
	setupChatRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t,
		"data: {\"type\":\"stream\",\"stream_id\":\"st_1\"}\n\n"+
			"data: {\"type\":\"delta\",\"chunk\":\"Hi\",\"content\":\"Hi\"}\n\n"+
			"data: {\"type\":\"done\"}\n\n"+
			"data: [DONE]\n\n",
		w.Body.String())

	assert.Equal(t, "uid-1", got.UserID)
	assert.Empty(t, got.GuestID)
	assert.Equal(t, "conv_1", got.ConversationID)
	assert.Equal(t, locale.Korean, got.Language)
}

func TestChatHandler_StreamErrorBeforeFramesIsJSON(t *testing.T) {
	svc := &MockChatService{
		StreamFunc: func(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error) {
			assert.Equal(t, "id:browser-9", req.GuestID)
			return chat.Outcome{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeTooManyRequests, "guest question limit reached", nil, "test-uuid")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(`{"question":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "browser-9")
	w := httptest.NewRecorder()
	setupChatRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "guest question limit reached", resp["message"])
	assert.Equal(t, "test-uuid", resp["code"])
}

func TestChatHandler_StreamRejectsBadBody(t *testing.T) {
	called := false
	svc := &MockChatService{
		StreamFunc: func(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error) {
			called = true
			return chat.Outcome{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(`{"question":"q","rewrite_message_index":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupChatRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestChatHandler_Complete(t *testing.T) {
	svc := &MockChatService{
		CompleteFunc: func(ctx context.Context, req chat.StreamRequest) (*chat.CompleteResponse, error) {
			assert.Len(t, req.History, 1)
			return &chat.CompleteResponse{
				Answer:     "Yes [1].",
				References: []chat.CompleteReference{{Source: "JAVMA", Title: "Xylitol", Year: "2020", Page: 3}},
			}, nil
		},
	}

	body := `{"question":"q","conversation_history":[{"role":"user","content":"earlier"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupChatRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp chat.CompleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Yes [1].", resp.Answer)
	assert.Equal(t, "JAVMA", resp.References[0].Source)
}

func TestChatHandler_Cancel(t *testing.T) {
	svc := &MockChatService{
		CancelFunc: func(streamID, userID, guestID string) bool {
			return streamID == "st_live" && userID == "uid-1"
		},
	}
	router := setupChatRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/streams/st_live/cancel", nil)
	req.Header.Set("X-Debug-User", "uid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stream_id":"st_live","cancelled":true}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/chat/streams/st_live/cancel", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "a guest cannot cancel a user's stream")
}
