package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/pkg/response"
	"github.com/ferrostar/askbase/internal/service"
)

type LeadHandler struct {
	leads *service.LeadService
}

func NewLeadHandler(leads *service.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.leads.ListByBot(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, leads)
}

type leadCaptureRequest struct {
	BotID     string `json:"bot_id"`
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// Capture is the pre-chat path: the widget collects an email before the
// conversation starts. A repeat capture of the same email is reported as
// success so the widget never blocks on it.
func (h *LeadHandler) Capture(c *gin.Context) {
	var req leadCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.BotID == "" || req.Email == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "bot_id and email required")
		return
	}
	lead, err := h.leads.CaptureForBot(c.Request.Context(), req.BotID, req.SessionID, req.Email, req.Name)
	if err != nil {
		if appErr.IsConflict(err) {
			response.Success(c, gin.H{"captured": true, "duplicate": true})
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"captured": true, "lead_id": lead.ID})
}
