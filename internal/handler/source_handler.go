package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferrostar/askbase/internal/pkg/response"
	"github.com/ferrostar/askbase/internal/service"
)

type SourceHandler struct {
	ingest *service.IngestService
}

func NewSourceHandler(ingest *service.IngestService) *SourceHandler {
	return &SourceHandler{ingest: ingest}
}

type sourceCreateRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Body string `json:"body"`
}

func (h *SourceHandler) Create(c *gin.Context) {
	var req sourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.Name == "" || req.Body == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "name and body required")
		return
	}
	source, chunkCount, err := h.ingest.Ingest(c.Request.Context(), c.Param("id"), req.Name, req.Type, req.Body)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"source": source, "chunk_count": chunkCount})
}

func (h *SourceHandler) List(c *gin.Context) {
	sources, err := h.ingest.ListSources(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sources)
}

func (h *SourceHandler) Delete(c *gin.Context) {
	if err := h.ingest.DeleteSource(c.Request.Context(), c.Param("id"), c.Param("source_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
