package handler

import (
	"github.com/gin-gonic/gin"

	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/pkg/response"
	"github.com/ferrostar/askbase/internal/repo"
)

type BotHandler struct {
	bots *repo.BotRepo
}

func NewBotHandler(bots *repo.BotRepo) *BotHandler {
	return &BotHandler{bots: bots}
}

// Get is the widget-facing bot lookup. Non-public bots are indistinguishable
// from missing ones.
func (h *BotHandler) Get(c *gin.Context) {
	bot, err := h.bots.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if !bot.Public {
		handleError(c, appErr.ErrNotFound)
		return
	}
	response.Success(c, gin.H{
		"id":           bot.ID,
		"name":         bot.Name,
		"model":        bot.Model,
		"require_lead": bot.RequireLead,
	})
}
