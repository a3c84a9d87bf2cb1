package app

import (
	"github.com/contractsense/contractsense-backend/internal/analysis"
	"github.com/contractsense/contractsense-backend/internal/ingestion/extractor"
	"github.com/contractsense/contractsense-backend/internal/ingestion/indexer"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/rag/composer"
	"github.com/contractsense/contractsense-backend/internal/rag/retriever"
	"github.com/contractsense/contractsense-backend/internal/services"
)

type Services struct {
	Documents services.DocumentService
	Queries   services.QueryService
	Analyses  services.AnalysisService
}

// wireServices assembles the ingestion and retrieval pipelines around the
// resolved providers. The same OpenAI client serves indexing and querying so
// index metadata always matches the embedder answering questions.
func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	store, err := resolveVectorStoreProvider(log, cfg)
	if err != nil {
		return Services{}, err
	}
	objects, err := resolveStorageProvider(log, cfg)
	if err != nil {
		return Services{}, err
	}
	ocrEngine, err := resolveOCRProvider(log, cfg)
	if err != nil {
		return Services{}, err
	}

	ext := extractor.New(log, ocrEngine)
	ix := indexer.New(log, clients.OpenAI, store, reposet.Chunks,
		indexer.WithCache(clients.EmbedCache))
	ret := retriever.New(log, clients.OpenAI, store, reposet.Documents, reposet.Chunks)
	comp := composer.New(log, clients.OpenAI)

	analyzer, err := analysis.New(log, ret, clients.OpenAI, reposet.Analyses)
	if err != nil {
		return Services{}, err
	}

	documents := services.NewDocumentService(log, reposet.Documents, reposet.Queries, objects, ext, ix)
	queries, err := services.NewQueryService(log, ret, comp, reposet.Queries)
	if err != nil {
		return Services{}, err
	}
	analyses := services.NewAnalysisService(log, analyzer, reposet.Documents, reposet.Analyses)

	return Services{
		Documents: documents,
		Queries:   queries,
		Analyses:  analyses,
	}, nil
}
