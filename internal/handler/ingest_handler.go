package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/merchantiq/docengine/internal/extract"
	"github.com/merchantiq/docengine/internal/ingest"
	"github.com/merchantiq/docengine/internal/pkg/response"
)

type IngestHandler struct {
	reindexer  *ingest.Reindexer
	batchLimit int
}

func NewIngestHandler(reindexer *ingest.Reindexer, batchLimit int) *IngestHandler {
	return &IngestHandler{reindexer: reindexer, batchLimit: batchLimit}
}

type reindexRequest struct {
	Namespace string `json:"namespace"`
}

func (h *IngestHandler) Reindex(c *gin.Context) {
	var req reindexRequest
	_ = c.ShouldBindJSON(&req)
	if req.Namespace == "" {
		req.Namespace = "default"
	}
	outcome, err := h.reindexer.Reindex(c.Request.Context(), c.Param("id"), req.Namespace)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, outcome)
}

func (h *IngestHandler) ReindexBatch(c *gin.Context) {
	limit := h.batchLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	namespace := c.Query("namespace")
	if namespace == "" {
		namespace = "default"
	}
	outcome, err := h.reindexer.ReindexBatch(c.Request.Context(), limit, namespace)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, outcome)
}

type qualityRequest struct {
	Confidence float64 `json:"confidence"`
	TextLength int     `json:"text_length"`
	WordCount  int     `json:"word_count"`
}

// Quality grades an extraction without re-running it, for review tooling.
func (h *IngestHandler) Quality(c *gin.Context) {
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	response.Success(c, extract.AssessQuality(req.Confidence, req.TextLength, req.WordCount))
}
