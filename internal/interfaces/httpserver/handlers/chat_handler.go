package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

// ChatService runs chat turns.
type ChatService interface {
	Stream(ctx context.Context, req chat.StreamRequest, sink chat.Sink) (chat.Outcome, error)
	Complete(ctx context.Context, req chat.StreamRequest) (*chat.CompleteResponse, error)
	Cancel(streamID, userID, guestID string) bool
}

// ChatHandler serves the chat endpoints. Guests and signed-in users share
// them; OptionalAuth tells them apart.
type ChatHandler struct {
	service ChatService
	log     zerolog.Logger
}

func NewChatHandler(service ChatService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// CancelResponse acknowledges a stream cancellation.
type CancelResponse struct {
	StreamID  string `json:"stream_id"`
	Cancelled bool   `json:"cancelled"`
}

// Stream handles POST /v1/chat/stream
// @Summary Stream a chat answer
// @Description Runs one chat turn and streams frames as server-sent events. The last line is `data: [DONE]`.
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param request body requests.ChatRequest true "Chat request"
// @Success 200 {object} chat.Frame
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 429 {object} responses.ErrorResponse
// @Router /v1/chat/stream [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "b1c2d3e4-f5a6-4b7c-8d9e-1f2a3b4c5d01")
		return
	}

	// Headers are only written once the turn is prepared so quota and
	// lookup failures still get a plain JSON error.
	var writer *responses.SSEWriter
	sink := chat.SinkFunc(func(frame chat.Frame) error {
		if writer == nil {
			writer = responses.NewSSEWriter(c)
		}
		return writer.Send(frame)
	})

	outcome, err := h.service.Stream(c.Request.Context(), h.streamRequest(c, req), sink)
	if err != nil {
		if writer == nil {
			responses.HandleError(c, err, "failed to start chat")
			return
		}
		h.log.Error().Err(err).Msg("chat stream ended with error")
	}
	if writer == nil {
		writer = responses.NewSSEWriter(c)
	}
	writer.Done()

	h.log.Debug().
		Bool("cancelled", outcome.Cancelled).
		Bool("failed", outcome.Failed).
		Bool("out_of_scope", outcome.OutOfScope).
		Msg("chat stream finished")
}

// Complete handles POST /v1/chat
// @Summary Answer a question without streaming
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body requests.ChatRequest true "Chat request"
// @Success 200 {object} chat.CompleteResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 429 {object} responses.ErrorResponse
// @Failure 502 {object} responses.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Complete(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "b1c2d3e4-f5a6-4b7c-8d9e-1f2a3b4c5d02")
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), h.streamRequest(c, req))
	if err != nil {
		responses.HandleError(c, err, "failed to answer question")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /v1/chat/streams/:stream_id/cancel
// @Summary Cancel a running chat stream
// @Tags Chat
// @Produce json
// @Param stream_id path string true "Stream ID"
// @Success 200 {object} CancelResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/chat/streams/{stream_id}/cancel [post]
func (h *ChatHandler) Cancel(c *gin.Context) {
	streamID := c.Param("stream_id")
	var userID string
	if principal, ok := middlewares.PrincipalFromContext(c); ok {
		userID = principal.UID
	}

	if !h.service.Cancel(streamID, userID, middlewares.GuestIDFromContext(c)) {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "stream not found", "b1c2d3e4-f5a6-4b7c-8d9e-1f2a3b4c5d03")
		return
	}
	c.JSON(http.StatusOK, CancelResponse{StreamID: streamID, Cancelled: true})
}

func (h *ChatHandler) streamRequest(c *gin.Context, req requests.ChatRequest) chat.StreamRequest {
	out := chat.StreamRequest{
		ConversationID:      req.ConversationID,
		Question:            req.Question,
		Language:            locale.Parse(req.Language),
		RewriteMessageIndex: req.RewriteMessageIndex,
		History:             req.ConversationHistory,
		ContextChunks:       req.ContextChunks,
	}
	if principal, ok := middlewares.PrincipalFromContext(c); ok {
		out.UserID = principal.UID
	} else {
		out.GuestID = middlewares.GuestIDFromContext(c)
	}
	return out
}
