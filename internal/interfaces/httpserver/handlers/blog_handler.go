package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/blog"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
)

// BlogReader serves published posts.
type BlogReader interface {
	List(ctx context.Context, category string) ([]*blog.Post, error)
	Featured(ctx context.Context) (*blog.Post, error)
	BySlug(ctx context.Context, slug string) (*blog.Post, error)
}

type BlogHandler struct {
	service BlogReader
	log     zerolog.Logger
}

func NewBlogHandler(service BlogReader, log zerolog.Logger) *BlogHandler {
	return &BlogHandler{
		service: service,
		log:     log.With().Str("handler", "blog").Logger(),
	}
}

// List handles GET /v1/blog/posts
// @Summary List blog posts
// @Tags Blog
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {object} responses.ListResponse[blog.Post]
// @Router /v1/blog/posts [get]
func (h *BlogHandler) List(c *gin.Context) {
	var query requests.BlogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err, "b7c8d9e0-f1a2-4b3c-8d4e-7f8a9b0c1d01")
		return
	}
	posts, err := h.service.List(c.Request.Context(), query.Category)
	if err != nil {
		responses.HandleError(c, err, "failed to list posts")
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, responses.NewListResponse(posts))
}

// Featured handles GET /v1/blog/posts/featured
// @Summary Newest featured post
// @Tags Blog
// @Produce json
// @Success 200 {object} blog.Post
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/blog/posts/featured [get]
func (h *BlogHandler) Featured(c *gin.Context) {
	post, err := h.service.Featured(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to get featured post")
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, post)
}

// Get handles GET /v1/blog/posts/:slug
// @Summary Get a post by slug
// @Tags Blog
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} blog.Post
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/blog/posts/{slug} [get]
func (h *BlogHandler) Get(c *gin.Context) {
	post, err := h.service.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		responses.HandleError(c, err, "failed to get post")
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, post)
}
