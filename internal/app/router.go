package app

import (
	"github.com/gin-gonic/gin"

	"github.com/contractsense/contractsense-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     cfg.ServiceName,
		DocumentHandler: handlerset.Document,
		QueryHandler:    handlerset.Query,
		AnalysisHandler: handlerset.Analysis,
	})
}
