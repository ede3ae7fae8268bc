package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferrostar/askbase/internal/ai"
	"github.com/ferrostar/askbase/internal/pkg/response"
	"github.com/ferrostar/askbase/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	SessionID string        `json:"session_id"`
	Messages  []chatMessage `json:"messages"`
}

// Chat streams one answer as server-sent events. Errors before the stream
// starts are plain JSON; once streaming, a failure is delivered as an "error"
// event followed by "done".
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	messages := make([]ai.ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ai.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	stream, err := h.chat.ChatTurn(c.Request.Context(), c.Param("id"), req.SessionID, messages)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-stream
		if !ok {
			c.SSEvent("done", "")
			return false
		}
		if chunk.Err != nil {
			c.SSEvent("error", "stream failed")
			return true
		}
		c.SSEvent("message", chunk.Delta)
		return true
	})
}

// History returns the transcript of one session.
func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chat.History(c.Request.Context(), c.Param("id"), c.Query("session_id"), 0)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, msgs)
}
