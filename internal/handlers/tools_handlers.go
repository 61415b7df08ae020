package handlers

import (
	"net/http"

	"osintrecon/internal/services"

	"github.com/gin-gonic/gin"
)

type ToolsHandler struct {
	catalogService services.CatalogServiceMethods
}

func NewToolsHandler(catalogService services.CatalogServiceMethods) *ToolsHandler {
	return &ToolsHandler{catalogService: catalogService}
}

func (h *ToolsHandler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.GetScanTools())
}
