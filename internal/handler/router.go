package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Documents  *DocumentHandler
	Ingest     *IngestHandler
	Retrieval  *RetrievalHandler
	Namespaces *NamespaceHandler
	Health     *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents", deps.Documents.Create)
	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.GET("/documents/:id/chunks", deps.Documents.Chunks)
	api.DELETE("/documents/:id", deps.Documents.Delete)

	api.POST("/documents/:id/reindex", deps.Ingest.Reindex)
	api.POST("/reindex", deps.Ingest.ReindexBatch)
	api.POST("/extraction/quality", deps.Ingest.Quality)

	api.POST("/search", deps.Retrieval.Search)
	api.POST("/classify", deps.Retrieval.Classify)
	api.POST("/chain", deps.Retrieval.Chain)

	api.POST("/namespaces", deps.Namespaces.Create)
	api.GET("/namespaces", deps.Namespaces.List)

	api.GET("/health", deps.Health.Health)
}
