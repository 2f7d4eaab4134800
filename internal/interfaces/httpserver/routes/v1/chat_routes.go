package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	router.POST("/chat", handler.Complete)
	router.POST("/chat/stream", handler.Stream)
	router.POST("/chat/streams/:stream_id/cancel", handler.Cancel)
}
