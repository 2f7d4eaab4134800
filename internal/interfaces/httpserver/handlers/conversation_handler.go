package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
)

// ConversationService manages stored conversations.
type ConversationService interface {
	Create(ctx context.Context, userID string) (*conversation.Conversation, error)
	Get(ctx context.Context, userID, id string) (*conversation.Conversation, error)
	List(ctx context.Context, userID string, filter conversation.Filter) ([]*conversation.Conversation, error)
	UpdateTitle(ctx context.Context, userID, id, title string) (string, error)
	ToggleFavorite(ctx context.Context, userID, id string) (bool, error)
	SetMessageFeedback(ctx context.Context, userID, id string, index int, fb conversation.Feedback) (conversation.Feedback, error)
	SetReferenceFeedback(ctx context.Context, userID, id string, msgIndex, refIndex int, fb conversation.Feedback) (conversation.Feedback, error)
	Delete(ctx context.Context, userID, id string) error
	CopyAnswer(ctx context.Context, userID, id string, index int) (string, error)
}

// ProjectLister lists a user's projects.
type ProjectLister interface {
	List(ctx context.Context, userID string) ([]*project.Project, error)
}

// ConversationHandler exposes the conversation store.
type ConversationHandler struct {
	service  ConversationService
	projects ProjectLister
	log      zerolog.Logger
}

func NewConversationHandler(service ConversationService, projects ProjectLister, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service:  service,
		projects: projects,
		log:      log.With().Str("handler", "conversation").Logger(),
	}
}

// TitleResponse reports a stored title.
type TitleResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// List handles GET /v1/conversations
// @Summary List conversations
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param favorites query bool false "Only favorites"
// @Param search query string false "Case-insensitive title search"
// @Param limit query int false "Maximum number of results" default(100)
// @Success 200 {object} responses.ListResponse[responses.ConversationSummary]
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var query requests.ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err, "c2d3e4f5-a6b7-4c8d-9e0f-2a3b4c5d6e01")
		return
	}

	convs, err := h.service.List(c.Request.Context(), userID, conversation.Filter{
		FavoritesOnly: query.Favorites,
		Search:        query.Search,
		Limit:         query.Limit,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.NewConversationSummaries(convs)))
}

// Create handles POST /v1/conversations
// @Summary Create an empty conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Success 201 {object} responses.ConversationResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conv, err := h.service.Create(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConversationResponse(conv))
}

// Get handles GET /v1/conversations/:id
// @Summary Get a conversation with its messages
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var (
		conv     *conversation.Conversation
		projects []*project.Project
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		conv, err = h.service.Get(ctx, userID, id)
		return err
	})
	if h.projects != nil {
		g.Go(func() error {
			var err error
			projects, err = h.projects.List(ctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}

	resp := responses.NewConversationResponse(conv)
	for _, proj := range projects {
		if proj.HasConversation(conv.ID) {
			resp.ProjectIDs = append(resp.ProjectIDs, proj.ID)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Update handles PATCH /v1/conversations/:id
// @Summary Rename a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body requests.UpdateConversationRequest true "New title"
// @Success 200 {object} TitleResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id} [patch]
func (h *ConversationHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req requests.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "c2d3e4f5-a6b7-4c8d-9e0f-2a3b4c5d6e02")
		return
	}

	id := c.Param("id")
	title, err := h.service.UpdateTitle(c.Request.Context(), userID, id, req.Title)
	if err != nil {
		responses.HandleError(c, err, "failed to rename conversation")
		return
	}
	c.JSON(http.StatusOK, TitleResponse{ID: id, Title: title})
}

// Delete handles DELETE /v1/conversations/:id
// @Summary Delete a conversation
// @Description Also removes the conversation from every project.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.DeletedResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: id, Deleted: true})
}

// ToggleFavorite handles POST /v1/conversations/:id/favorite
// @Summary Toggle the favorite flag
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.FavoriteResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/favorite [post]
func (h *ConversationHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	fav, err := h.service.ToggleFavorite(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to update favorite")
		return
	}
	c.JSON(http.StatusOK, responses.FavoriteResponse{IsFavorite: fav})
}

// MessageFeedback handles POST /v1/conversations/:id/messages/:index/feedback
// @Summary Like or dislike an answer
// @Description Sending the current value again clears it.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param index path int true "Message index"
// @Param request body requests.FeedbackRequest true "Feedback"
// @Success 200 {object} responses.FeedbackResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/messages/{index}/feedback [post]
func (h *ConversationHandler) MessageFeedback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	index, ok := pathIndex(c, "index")
	if !ok {
		return
	}
	var req requests.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "c2d3e4f5-a6b7-4c8d-9e0f-2a3b4c5d6e03")
		return
	}

	fb, err := h.service.SetMessageFeedback(c.Request.Context(), userID, c.Param("id"), index, conversation.Feedback(req.Feedback))
	if err != nil {
		responses.HandleError(c, err, "failed to save feedback")
		return
	}
	c.JSON(http.StatusOK, responses.FeedbackResponse{Feedback: fb})
}

// ReferenceFeedback handles POST /v1/conversations/:id/messages/:index/references/:ref/feedback
// @Summary Like or dislike a reference
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param index path int true "Message index"
// @Param ref path int true "Reference index"
// @Param request body requests.FeedbackRequest true "Feedback"
// @Success 200 {object} responses.FeedbackResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/messages/{index}/references/{ref}/feedback [post]
func (h *ConversationHandler) ReferenceFeedback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	index, ok := pathIndex(c, "index")
	if !ok {
		return
	}
	ref, ok := pathIndex(c, "ref")
	if !ok {
		return
	}
	var req requests.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "c2d3e4f5-a6b7-4c8d-9e0f-2a3b4c5d6e04")
		return
	}

	fb, err := h.service.SetReferenceFeedback(c.Request.Context(), userID, c.Param("id"), index, ref, conversation.Feedback(req.Feedback))
	if err != nil {
		responses.HandleError(c, err, "failed to save feedback")
		return
	}
	c.JSON(http.StatusOK, responses.FeedbackResponse{Feedback: fb})
}

// Copy handles GET /v1/conversations/:id/messages/:index/copy
// @Summary Clipboard text of an answer
// @Description The answer without citation markers, followed by its numbered references.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param index path int true "Message index"
// @Success 200 {object} responses.CopyResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/messages/{index}/copy [get]
func (h *ConversationHandler) Copy(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	index, ok := pathIndex(c, "index")
	if !ok {
		return
	}
	text, err := h.service.CopyAnswer(c.Request.Context(), userID, c.Param("id"), index)
	if err != nil {
		responses.HandleError(c, err, "failed to copy answer")
		return
	}
	c.JSON(http.StatusOK, responses.CopyResponse{Text: text})
}
