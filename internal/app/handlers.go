package app

import (
	"github.com/contractsense/contractsense-backend/internal/handlers"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type Handlers struct {
	Document *handlers.DocumentHandler
	Query    *handlers.QueryHandler
	Analysis *handlers.AnalysisHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Document: handlers.NewDocumentHandler(serviceset.Documents),
		Query:    handlers.NewQueryHandler(serviceset.Queries),
		Analysis: handlers.NewAnalysisHandler(serviceset.Analyses),
	}
}
