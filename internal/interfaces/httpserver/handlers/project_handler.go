package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
	"ruleout-server/internal/utils/platformerrors"
)

// ProjectService manages projects and their conversation sets.
type ProjectService interface {
	Create(ctx context.Context, userID, title, description string, lang locale.Language) (*project.Project, error)
	Get(ctx context.Context, userID, id string) (*project.Project, error)
	List(ctx context.Context, userID string) ([]*project.Project, error)
	AddConversation(ctx context.Context, userID, id, conversationID string) (*project.Project, error)
	RemoveConversation(ctx context.Context, userID, id, conversationID string) (*project.Project, error)
	UpdateTitle(ctx context.Context, userID, id, title string) (*project.Project, error)
	UpdateDescription(ctx context.Context, userID, id, description string) (*project.Project, error)
	Delete(ctx context.Context, userID, id string) error
	ListConversations(ctx context.Context, userID, id string) ([]*conversation.Conversation, error)
}

type ProjectHandler struct {
	service ProjectService
	log     zerolog.Logger
}

func NewProjectHandler(service ProjectService, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		log:     log.With().Str("handler", "project").Logger(),
	}
}

// List handles GET /v1/projects
// @Summary List projects
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} responses.ListResponse[project.Project]
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projects, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(projects))
}

// Create handles POST /v1/projects
// @Summary Create a project
// @Description An empty title becomes the localized default project name.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body requests.CreateProjectRequest true "Project"
// @Success 201 {object} project.Project
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req requests.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "d3e4f5a6-b7c8-4d9e-8f0a-3b4c5d6e7f01")
		return
	}

	proj, err := h.service.Create(c.Request.Context(), userID, req.Title, req.Description, locale.Parse(req.Language))
	if err != nil {
		responses.HandleError(c, err, "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, proj)
}

// Get handles GET /v1/projects/:id
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} project.Project
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proj, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get project")
		return
	}
	c.JSON(http.StatusOK, proj)
}

// Update handles PATCH /v1/projects/:id
// @Summary Change a project's title or description
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body requests.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} project.Project
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req requests.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "d3e4f5a6-b7c8-4d9e-8f0a-3b4c5d6e7f02")
		return
	}
	if req.Title == nil && req.Description == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "title or description is required", "d3e4f5a6-b7c8-4d9e-8f0a-3b4c5d6e7f03")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		proj *project.Project
		err  error
	)
	if req.Title != nil {
		if proj, err = h.service.UpdateTitle(ctx, userID, id, *req.Title); err != nil {
			responses.HandleError(c, err, "failed to update project")
			return
		}
	}
	if req.Description != nil {
		if proj, err = h.service.UpdateDescription(ctx, userID, id, *req.Description); err != nil {
			responses.HandleError(c, err, "failed to update project")
			return
		}
	}
	c.JSON(http.StatusOK, proj)
}

// Delete handles DELETE /v1/projects/:id
// @Summary Delete a project
// @Description The project's conversations are kept.
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} responses.DeletedResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		responses.HandleError(c, err, "failed to delete project")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: id, Deleted: true})
}

// ListConversations handles GET /v1/projects/:id/conversations
// @Summary List a project's conversations
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} responses.ListResponse[responses.ConversationSummary]
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id}/conversations [get]
func (h *ProjectHandler) ListConversations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	convs, err := h.service.ListConversations(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list project conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.NewConversationSummaries(convs)))
}

// AddConversation handles PUT /v1/projects/:id/conversations/:conversation_id
// @Summary Add a conversation to a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} project.Project
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id}/conversations/{conversation_id} [put]
func (h *ProjectHandler) AddConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proj, err := h.service.AddConversation(c.Request.Context(), userID, c.Param("id"), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to add conversation to project")
		return
	}
	c.JSON(http.StatusOK, proj)
}

// RemoveConversation handles DELETE /v1/projects/:id/conversations/:conversation_id
// @Summary Remove a conversation from a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} project.Project
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/projects/{id}/conversations/{conversation_id} [delete]
func (h *ProjectHandler) RemoveConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	proj, err := h.service.RemoveConversation(c.Request.Context(), userID, c.Param("id"), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to remove conversation from project")
		return
	}
	c.JSON(http.StatusOK, proj)
}
