package routes

import (
	"osintrecon/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitScanRoutes(router *gin.RouterGroup, h *handlers.ScanHandler) {
	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", h.StartScan)
		scanRoutes.GET("", h.ListScans)
		scanRoutes.DELETE("", h.DeleteAllScans)
		scanRoutes.GET("/:id", h.GetScanByID)
	}
}

func InitToolRoutes(router *gin.RouterGroup, h *handlers.ToolsHandler) {
	router.GET("/tools", h.ListTools)
}
