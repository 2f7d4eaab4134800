package qaclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/utils/httpclients"
	"ruleout-server/internal/utils/platformerrors"
	"ruleout-server/internal/utils/sse"
	"ruleout-server/pkg/observability"
)

const queryStreamPath = "/query-stream"

// Client talks to the veterinary Q&A backend.
type Client struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

var _ chat.QAClient = (*Client)(nil)

// NewClient creates a Q&A client. timeout bounds connection setup and the
// response headers only, streams may run longer.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	logger := log.With().Str("component", "qa-client").Logger()
	client := httpclients.NewClient("qa", 0, logger)
	if timeout > 0 {
		client.SetTransport(httpclients.NewStreamingTransport(timeout))
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger,
	}
}

// QueryStream opens an event stream for one question. The returned stream
// must be closed.
func (c *Client) QueryStream(ctx context.Context, req chat.QueryRequest) (_ chat.EventStream, err error) {
	ctx, span := observability.StartClientSpan(ctx, "qa.query_stream",
		attribute.String("qa.language", string(req.Language)),
		attribute.Int("qa.history_len", len(req.ConversationHistory)),
	)
	defer func() {
		if err != nil {
			observability.EndSpan(span, err)
		}
	}()

	if req.ConversationHistory == nil {
		req.ConversationHistory = []chat.HistoryEntry{}
	}
	if len(req.PreviousContextChunks) == 0 {
		req.PreviousContextChunks = []byte("null")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(c.baseURL + queryStreamPath)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "q&a request failed", err, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b01")
	}
	if resp.IsError() {
		return nil, errorFromResponse(ctx, resp, "q&a request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "q&a request failed: empty response body", nil, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b02")
	}

	return &eventStream{
		ctx:    ctx,
		body:   resp.RawResponse.Body,
		reader: sse.NewReader(resp.RawResponse.Body),
		span:   span,
		log:    c.log,
	}, nil
}

type eventStream struct {
	ctx    context.Context
	body   io.ReadCloser
	reader *sse.Reader
	span   trace.Span
	events int
	log    zerolog.Logger
}

// Next skips payloads that are not valid event JSON.
func (s *eventStream) Next() (chat.Event, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return chat.Event{}, err
		}
		payload, err := s.reader.Next()
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return chat.Event{}, ctxErr
			}
			return chat.Event{}, err
		}
		ev, err := chat.ParseEvent(payload)
		if err != nil {
			s.log.Warn().Err(err).Int("payload_len", len(payload)).Msg("skipping malformed q&a event")
			continue
		}
		s.events++
		return ev, nil
	}
}

func (s *eventStream) Close() error {
	s.span.SetAttributes(attribute.Int("qa.events", s.events))
	s.span.End()
	return s.body.Close()
}

func errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	message = fmt.Sprintf("%s: status %d", message, resp.StatusCode())
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b03")
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 4096))
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, err, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b04")
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b05")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "c3a1d5e7-2b4f-4c6a-8e0d-1f3a5c7e9b06")
}
