package app

import (
	"github.com/contractsense/contractsense-backend/internal/ingestion/indexer"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI     openai.Client
	EmbedCache indexer.EmbedCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	ai, err := openai.New(log)
	if err != nil {
		return Clients{}, err
	}

	// Redis shares the embedding cache across replicas; without an
	// address each process keeps its own LRU.
	cache := indexer.NewRedisCache(log)
	if cache == nil {
		cache = indexer.NewLRUCache(envutil.Int("EMBED_CACHE_SIZE", 2048))
	}

	return Clients{OpenAI: ai, EmbedCache: cache}, nil
}
