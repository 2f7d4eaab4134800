package transcription

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/utils/platformerrors"
)

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2", r.FormValue("num_speakers"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "recording.webm", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "audio-bytes", string(data))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, body)
	}))
}

func TestTranscribe_Complete(t *testing.T) {
	server := newServer(t, strings.Join([]string{
		`data: {"status":"step","step":"transcribing"}`,
		`data: {"status":"step","step":"diarizing"}`,
		`data: {"status":"complete","segments":[{"speaker":"vet","text":"Hello","start":0,"end":1.5}],"duration":42.5,"language":"en"}`,
		"",
	}, "\n"))
	defer server.Close()

	var elapsedOK []bool
	client := NewClient(server.URL, time.Second, func(_ time.Duration, ok bool) { elapsedOK = append(elapsedOK, ok) }, zerolog.Nop())

	var steps []string
	transcript, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "recording.webm", 2, func(p recording.Progress) {
		steps = append(steps, p.Step)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"transcribing", "diarizing"}, steps)
	assert.Equal(t, 42.5, transcript.Duration)
	assert.Equal(t, "en", transcript.Language)
	require.Len(t, transcript.Segments, 1)
	assert.Equal(t, recording.SpeakerVet, transcript.Segments[0].Speaker)
	assert.Equal(t, []bool{true}, elapsedOK)
}

func TestTranscribe_ErrorEvent(t *testing.T) {
	server := newServer(t, "data: {\"status\":\"error\",\"message\":\"unsupported codec\"}\n")
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, zerolog.Nop())
	_, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "recording.webm", 2, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.Contains(t, err.Error(), "unsupported codec")
}

func TestTranscribe_NoResult(t *testing.T) {
	server := newServer(t, "data: {\"status\":\"step\",\"step\":\"transcribing\"}\ndata: oops\n")
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, zerolog.Nop())
	_, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "recording.webm", 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transcription result received")
}

func TestTranscribe_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, zerolog.Nop())
	_, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "recording.webm", 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
