package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Bots    *BotHandler
	Sources *SourceHandler
	Chat    *ChatHandler
	Leads   *LeadHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/bots/:id", deps.Bots.Get)

	api.POST("/bots/:id/sources", deps.Sources.Create)
	api.GET("/bots/:id/sources", deps.Sources.List)
	api.DELETE("/bots/:id/sources/:source_id", deps.Sources.Delete)

	api.POST("/bots/:id/chat", deps.Chat.Chat)
	api.GET("/bots/:id/messages", deps.Chat.History)

	api.GET("/bots/:id/leads", deps.Leads.List)
	api.POST("/leads/capture", deps.Leads.Capture)
}
