package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ruleout-server/internal/domain/user"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
	"ruleout-server/internal/interfaces/httpserver/requests"
	"ruleout-server/internal/interfaces/httpserver/responses"
)

// UserService manages user profiles.
type UserService interface {
	RecordLogin(ctx context.Context, login user.Login) (*user.User, error)
	Get(ctx context.Context, uid string) (*user.User, error)
	UpdateSettings(ctx context.Context, uid string, settings user.Settings) (*user.User, error)
}

type UserHandler struct {
	service UserService
	log     zerolog.Logger
}

func NewUserHandler(service UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With().Str("handler", "user").Logger(),
	}
}

// Login handles POST /v1/users/me/login
// @Summary Record a sign-in
// @Description Creates the profile on first sign-in and bumps the login count afterwards.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body requests.LoginRequest false "Profile fields missing from the token"
// @Success 200 {object} user.User
// @Failure 401 {object} responses.ErrorResponse
// @Router /v1/users/me/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		middlewares.AbortUnauthorized(c)
		return
	}
	var req requests.LoginRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err, "a6b7c8d9-e0f1-4a2b-9c3d-6e7f8a9b0c01")
			return
		}
	}

	login := user.Login{
		UID:         principal.UID,
		Email:       principal.Email,
		DisplayName: principal.Name,
		PhotoURL:    principal.Picture,
	}
	if login.DisplayName == "" {
		login.DisplayName = req.DisplayName
	}
	if login.PhotoURL == "" {
		login.PhotoURL = req.PhotoURL
	}

	u, err := h.service.RecordLogin(c.Request.Context(), login)
	if err != nil {
		responses.HandleError(c, err, "failed to record login")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Me handles GET /v1/users/me
// @Summary Get the current profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} user.User
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	u, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		responses.HandleError(c, err, "failed to get profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Update handles PATCH /v1/users/me
// @Summary Update display name or username
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body requests.UpdateUserRequest true "Fields to change"
// @Success 200 {object} user.User
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/users/me [patch]
func (h *UserHandler) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req requests.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "a6b7c8d9-e0f1-4a2b-9c3d-6e7f8a9b0c02")
		return
	}
	u, err := h.service.UpdateSettings(c.Request.Context(), uid, user.Settings{
		DisplayName: req.DisplayName,
		Username:    req.Username,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, u)
}
