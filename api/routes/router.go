package routes

import (
	"time"

	"osintrecon/internal/config"
	"osintrecon/internal/handlers"
	"osintrecon/internal/services"
	"osintrecon/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	ScanService    services.ScanServiceMethods
	CatalogService services.CatalogServiceMethods
	CORS           config.CORSConfig
	Logger         *logger.Logger
}

func InitRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}

	router := gin.New()
	router.Use(gin.Logger(), handlers.Recovery(deps.Logger))

	if len(deps.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))
	}

	scanHandlers := handlers.NewScanHandler(deps.ScanService)
	router.GET("/", scanHandlers.Root)

	api := router.Group("/api")
	{
		InitScanRoutes(api, scanHandlers)
		InitToolRoutes(api, handlers.NewToolsHandler(deps.CatalogService))
	}

	return router
}
