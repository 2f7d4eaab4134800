package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.GET("/conversations", handler.List)
	router.POST("/conversations", handler.Create)
	router.GET("/conversations/:id", handler.Get)
	router.PATCH("/conversations/:id", handler.Update)
	router.DELETE("/conversations/:id", handler.Delete)
	router.POST("/conversations/:id/favorite", handler.ToggleFavorite)

	// Messages are addressed by their index in the conversation.
	router.POST("/conversations/:id/messages/:index/feedback", handler.MessageFeedback)
	router.POST("/conversations/:id/messages/:index/references/:ref/feedback", handler.ReferenceFeedback)
	router.GET("/conversations/:id/messages/:index/copy", handler.Copy)
}
