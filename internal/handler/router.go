package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Ask       *AskHandler
	Documents *DocumentHandler
	// AskLimiter throttles the question endpoint; nil disables limiting.
	AskLimiter gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	askGroup := api.Group("")
	if deps.AskLimiter != nil {
		askGroup.Use(deps.AskLimiter)
	}
	askGroup.POST("/ask", deps.Ask.Ask)

	api.GET("/search", deps.Ask.Search)
	api.GET("/interactions", deps.Ask.History)

	api.POST("/documents", deps.Documents.Create)
	api.PUT("/documents", deps.Documents.Upsert)
	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.DELETE("/documents/:id", deps.Documents.Delete)

	api.POST("/corpus/rebuild", deps.Documents.Rebuild)
	api.GET("/corpus/status", deps.Documents.Status)
}
