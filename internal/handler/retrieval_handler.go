package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/chain"
	"github.com/merchantiq/docengine/internal/classify"
	"github.com/merchantiq/docengine/internal/pkg/response"
	"github.com/merchantiq/docengine/internal/search"
)

type RetrievalHandler struct {
	search       *search.Manager
	router       *classify.Router
	orchestrator *chain.Orchestrator
}

func NewRetrievalHandler(searcher *search.Manager, router *classify.Router, orchestrator *chain.Orchestrator) *RetrievalHandler {
	return &RetrievalHandler{search: searcher, router: router, orchestrator: orchestrator}
}

type searchRequest struct {
	Query      string   `json:"query"`
	Namespaces []string `json:"namespaces"`
	Limit      int      `json:"limit"`
	Threshold  float64  `json:"threshold"`
}

func (h *RetrievalHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, http.StatusBadRequest, "query is required")
		return
	}
	rsp, err := h.search.Search(c.Request.Context(), req.Query, req.Namespaces, req.Limit, req.Threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	// Served results count toward the engagement boost.
	if !rsp.Cached {
		for _, r := range rsp.Results {
			h.search.RecordAccess(c.Request.Context(), r.DocumentID)
		}
	}
	response.Success(c, rsp)
}

type classifyRequest struct {
	Query string `json:"query"`
}

// Classify returns the keyword classification plus the routed
// namespace ordering for the caller's corpus.
func (h *RetrievalHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, http.StatusBadRequest, "query is required")
		return
	}
	classification := classify.Classify(req.Query)
	routes, err := h.router.Route(c.Request.Context(), getOwnerID(c), classification)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"classification": classification,
		"routes":         routes,
	})
}

type chainTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chainRequest struct {
	Query   string      `json:"query"`
	History []chainTurn `json:"history"`
}

func (h *RetrievalHandler) Chain(c *gin.Context) {
	var req chainRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, http.StatusBadRequest, "query is required")
		return
	}
	history := make([]ai.Message, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	result, err := h.orchestrator.Run(c.Request.Context(), getOwnerID(c), req.Query, history)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
