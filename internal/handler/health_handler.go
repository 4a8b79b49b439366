package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchantiq/docengine/internal/pkg/response"
	"github.com/merchantiq/docengine/internal/search"
)

// IPinger reports database connectivity.
type IPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	search  *search.Manager
	db      IPinger
	started time.Time
}

func NewHealthHandler(searcher *search.Manager, db IPinger) *HealthHandler {
	return &HealthHandler{search: searcher, db: db, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := h.search.Health(ctx)
	dbOK := h.db.Ping(ctx) == nil
	overall := "ok"
	if !dbOK {
		overall = "degraded"
	}
	response.Success(c, gin.H{
		"status":         overall,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"database":       dbOK,
		"retrieval":      status,
	})
}
