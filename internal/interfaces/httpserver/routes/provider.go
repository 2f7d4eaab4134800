package routes

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
	v1 "ruleout-server/internal/interfaces/httpserver/routes/v1"
)

// Provider coordinates all route registrations.
type Provider struct {
	V1    *v1.Routes
	files *handlers.FileHandler
}

// NewProvider constructs the route provider.
func NewProvider(handlerProvider *handlers.Provider, authn *middlewares.Authenticator) *Provider {
	return &Provider{
		V1:    v1.NewRoutes(handlerProvider, authn),
		files: handlerProvider.Files,
	}
}

// Register attaches all available routes to the gin engine.
func (p *Provider) Register(engine *gin.Engine) {
	if p.files != nil {
		engine.GET("/files/*key", p.files.Serve)
	}
	p.V1.Register(engine)
}
