package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ferrostar/askbase/internal/ai"
	appErr "github.com/ferrostar/askbase/internal/pkg/errors"
	"github.com/ferrostar/askbase/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrEmptyDocument):
		response.Error(c, http.StatusBadRequest, "empty_document", "document has no extractable text")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrNotConfigured):
		response.Error(c, http.StatusInternalServerError, "not_configured", "service not configured")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, http.StatusInternalServerError, "ai_unavailable", "ai provider unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
