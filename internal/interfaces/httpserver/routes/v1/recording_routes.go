package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerRecordingRoutes(router gin.IRoutes, handler *handlers.RecordingHandler) {
	router.GET("/recordings", handler.List)
	router.POST("/recordings", handler.Create)
	router.GET("/recordings/:id", handler.Get)
	router.DELETE("/recordings/:id", handler.Delete)
}
