package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerProjectRoutes(router gin.IRoutes, handler *handlers.ProjectHandler) {
	router.GET("/projects", handler.List)
	router.POST("/projects", handler.Create)
	router.GET("/projects/:id", handler.Get)
	router.PATCH("/projects/:id", handler.Update)
	router.DELETE("/projects/:id", handler.Delete)
	router.GET("/projects/:id/conversations", handler.ListConversations)
	router.PUT("/projects/:id/conversations/:conversation_id", handler.AddConversation)
	router.DELETE("/projects/:id/conversations/:conversation_id", handler.RemoveConversation)
}
