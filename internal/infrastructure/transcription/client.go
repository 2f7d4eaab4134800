package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/utils/httpclients"
	"ruleout-server/internal/utils/platformerrors"
	"ruleout-server/internal/utils/sse"
	"ruleout-server/pkg/observability"
)

const transcribePath = "/transcribe"

// Event statuses sent by the transcription service.
const (
	statusStep     = "step"
	statusComplete = "complete"
	statusError    = "error"
)

type event struct {
	Status   string                        `json:"status"`
	Step     string                        `json:"step,omitempty"`
	Message  string                        `json:"message,omitempty"`
	Segments []recording.TranscriptSegment `json:"segments,omitempty"`
	Duration float64                       `json:"duration,omitempty"`
	Language string                        `json:"language,omitempty"`
}

// DurationObserver receives the wall time of each transcription and whether
// it produced a transcript.
type DurationObserver func(elapsed time.Duration, ok bool)

// Client calls the speech-to-text and diarization service.
type Client struct {
	client  *resty.Client
	baseURL string
	observe DurationObserver
	log     zerolog.Logger
}

var _ recording.Transcriber = (*Client)(nil)

// NewClient creates a transcription client.
func NewClient(baseURL string, timeout time.Duration, observe DurationObserver, log zerolog.Logger) *Client {
	logger := log.With().Str("component", "transcription-client").Logger()
	client := httpclients.NewClient("transcription", 0, logger)
	if timeout > 0 {
		client.SetTransport(httpclients.NewStreamingTransport(timeout))
	}
	if observe == nil {
		observe = func(time.Duration, bool) {}
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		observe: observe,
		log:     logger,
	}
}

// Transcribe uploads audio and follows the progress stream until the final
// transcript arrives.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string, numSpeakers int, progress func(recording.Progress)) (result *recording.Transcript, err error) {
	ctx, span := observability.StartClientSpan(ctx, "transcription.transcribe")
	started := time.Now()
	defer func() {
		c.observe(time.Since(started), err == nil)
		observability.EndSpan(span, err)
	}()

	if progress == nil {
		progress = func(recording.Progress) {}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		SetFileReader("file", filename, audio).
		SetFormData(map[string]string{"num_speakers": strconv.Itoa(numSpeakers)}).
		SetDoNotParseResponse(true).
		Post(c.baseURL + transcribePath)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "transcription request failed", err, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c11")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "transcription request failed: empty response body", nil, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c12")
	}
	defer resp.RawResponse.Body.Close()

	if resp.IsError() {
		body, _ := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 4096))
		msg := fmt.Sprintf("transcription request failed: status %d", resp.StatusCode())
		if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
			msg += ": " + trimmed
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, msg, nil, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c13")
	}

	reader := sse.NewReader(resp.RawResponse.Body)
	for {
		payload, readErr := reader.Next()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "transcription stream interrupted", readErr, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c14")
		}

		var ev event
		if jsonErr := json.Unmarshal([]byte(payload), &ev); jsonErr != nil {
			c.log.Warn().Err(jsonErr).Msg("skipping malformed transcription event")
			continue
		}

		switch ev.Status {
		case statusStep:
			progress(recording.Progress{Step: ev.Step, Message: ev.Message})
		case statusComplete:
			segments := ev.Segments
			if segments == nil {
				segments = []recording.TranscriptSegment{}
			}
			return &recording.Transcript{Segments: segments, Duration: ev.Duration, Language: ev.Language}, nil
		case statusError:
			msg := ev.Message
			if msg == "" {
				msg = "transcription failed"
			}
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, msg, nil, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c15")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "no transcription result received", nil, "d4e6f8a0-3c5e-4a7b-9d1f-2b4c6e8a0c16")
}
