package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/contractsense/contractsense-backend/internal/handlers"
	"github.com/contractsense/contractsense-backend/internal/middleware"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
)

type RouterConfig struct {
	ServiceName     string
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
	AnalysisHandler *handlers.AnalysisHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.UserIDHeader},
		AllowCredentials: true,
	}))

	service := cfg.ServiceName
	if service == "" {
		service = "contractsense"
	}
	router.Use(otelgin.Middleware(service))
	router.Use(middleware.Identity())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Documents
		api.POST("/documents", cfg.DocumentHandler.Upload)
		api.GET("/documents", cfg.DocumentHandler.List)
		api.GET("/documents/:id", cfg.DocumentHandler.Get)
		api.DELETE("/documents/:id", cfg.DocumentHandler.Delete)
		// Query
		api.POST("/documents/:id/query", cfg.QueryHandler.Ask)
		api.GET("/queries", cfg.QueryHandler.History)
		api.DELETE("/queries/:id", cfg.QueryHandler.Delete)
		api.DELETE("/sessions/:id", cfg.QueryHandler.ClearSession)
		api.GET("/suggestions", cfg.QueryHandler.Suggestions)
		// Analysis
		api.POST("/documents/:id/analyze", cfg.AnalysisHandler.Run)
		api.GET("/documents/:id/analysis", cfg.AnalysisHandler.Latest)
	}

	return router
}

func allowedOrigins() []string {
	raw := envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
