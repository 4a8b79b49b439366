package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/response"
	"github.com/merchantiq/docengine/internal/repo"
)

type NamespaceHandler struct {
	namespaces *repo.NamespaceRepo
}

func NewNamespaceHandler(namespaces *repo.NamespaceRepo) *NamespaceHandler {
	return &NamespaceHandler{namespaces: namespaces}
}

type namespaceRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
}

func (h *NamespaceHandler) Create(c *gin.Context) {
	var req namespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		response.Error(c, http.StatusBadRequest, "name is required")
		return
	}
	kind := model.NamespaceKind(req.Kind)
	if req.Kind == "" {
		kind = model.NamespaceKindCustom
	}
	if req.Priority <= 0 || req.Priority > 100 {
		req.Priority = 50
	}
	ns := &model.Namespace{
		OwnerID:  getOwnerID(c),
		Name:     req.Name,
		Kind:     kind,
		Priority: req.Priority,
		Ctime:    time.Now().UnixMilli(),
	}
	if err := h.namespaces.Create(c.Request.Context(), ns); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ns)
}

func (h *NamespaceHandler) List(c *gin.Context) {
	list, err := h.namespaces.ListByOwner(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}
