package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerUserRoutes(router gin.IRoutes, handler *handlers.UserHandler) {
	router.POST("/users/me/login", handler.Login)
	router.GET("/users/me", handler.Me)
	router.PATCH("/users/me", handler.Update)
}
