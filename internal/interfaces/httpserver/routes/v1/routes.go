package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	authn    *middlewares.Authenticator
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(handlerProvider *handlers.Provider, authn *middlewares.Authenticator) *Routes {
	return &Routes{
		handlers: handlerProvider,
		authn:    authn,
	}
}

// Register attaches all v1 routes under the /v1 prefix. Chat and the guest
// quota accept guests; user-owned resources need a signed-in user.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")

	registerPublicRoutes(group, r.handlers)

	optional := group.Group("", r.authn.OptionalAuth())
	registerChatRoutes(optional, r.handlers.Chat)
	optional.GET("/guest/quota", r.handlers.Guest.Quota)

	protected := group.Group("", r.authn.RequireAuth())
	registerConversationRoutes(protected, r.handlers.Conversations)
	registerProjectRoutes(protected, r.handlers.Projects)
	registerRecordingRoutes(protected, r.handlers.Recordings)
	registerUserRoutes(protected, r.handlers.Users)
}
