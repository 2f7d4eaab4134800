package qaclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/utils/platformerrors"
)

func TestQueryStream_DecodesEvents(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query-stream", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"status\":\"translating\"}\n\n")
		_, _ = io.WriteString(w, ": keep-alive\n")
		_, _ = io.WriteString(w, "data: {not json\n")
		_, _ = io.WriteString(w, "data: {\"status\":\"streaming\",\"chunk\":\"Hi\"}\n")
		_, _ = io.WriteString(w, "data: {\"status\":\"done\",\"context_chunks\":[{\"id\":1}]}\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second, zerolog.Nop())
	stream, err := client.QueryStream(context.Background(), chat.QueryRequest{
		Question: "Dose of meloxicam?",
		Language: locale.English,
	})
	require.NoError(t, err)
	defer stream.Close()

	var statuses []chat.Status
	var chunk string
	var chunks json.RawMessage
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		statuses = append(statuses, ev.Status)
		if ev.Chunk != "" {
			chunk = ev.Chunk
		}
		if ev.ContextChunks != nil {
			chunks = ev.ContextChunks
		}
	}

	assert.Equal(t, []chat.Status{chat.StatusTranslating, chat.StatusStreaming, chat.StatusDone}, statuses)
	assert.Equal(t, "Hi", chunk)
	assert.JSONEq(t, `[{"id":1}]`, string(chunks))

	assert.Equal(t, "Dose of meloxicam?", got["question"])
	assert.Equal(t, "English", got["language"])
	assert.Equal(t, []any{}, got["conversation_history"])
	assert.Nil(t, got["previous_context_chunks"])
}

func TestQueryStream_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "index offline")
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())
	_, err := client.QueryStream(context.Background(), chat.QueryRequest{Question: "q"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.Contains(t, err.Error(), "index offline")
}

func TestQueryStream_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"status\":\"searching\"}\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL, time.Second, zerolog.Nop())
	stream, err := client.QueryStream(ctx, chat.QueryRequest{Question: "q"})
	require.NoError(t, err)
	defer stream.Close()

	ev, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, chat.StatusSearching, ev.Status)

	cancel()
	_, err = stream.Next()
	assert.ErrorIs(t, err, context.Canceled)
}
