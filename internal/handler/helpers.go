package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/merchantiq/docengine/internal/ai"
	appErr "github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/pkg/response"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultOwner = "default"

// getOwnerID reads the calling tenant from X-Owner-Id. Authentication
// runs in the fronting proxy; a missing header means the shared corpus.
func getOwnerID(c *gin.Context) string {
	if owner := c.GetHeader("X-Owner-Id"); owner != "" {
		return owner
	}
	return defaultOwner
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, "not found")
	case appErr.IsConflict(err):
		response.Error(c, http.StatusConflict, "conflict")
	case appErr.IsClassificationParse(err):
		response.Error(c, http.StatusBadGateway, "model response unparseable")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, appErr.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "backing file not found")
	case errors.Is(err, appErr.ErrExtractionFailed):
		response.Error(c, http.StatusUnprocessableEntity, "extraction failed")
	case errors.Is(err, appErr.ErrIndexUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "vector index unavailable")
	case errors.Is(err, appErr.ErrAIUnavailable), errors.Is(err, ai.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "ai not available")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
