package v1

import (
	"github.com/gin-gonic/gin"

	"ruleout-server/internal/interfaces/httpserver/handlers"
)

func registerPublicRoutes(router gin.IRoutes, h *handlers.Provider) {
	router.GET("/auth/errors/*code", handlers.AuthError)

	router.GET("/blog/posts", h.Blog.List)
	router.GET("/blog/posts/featured", h.Blog.Featured)
	router.GET("/blog/posts/:slug", h.Blog.Get)

	router.GET("/careers", h.Careers.ListJobs)
	router.POST("/careers/:slug/applications", h.Careers.Apply)
}
