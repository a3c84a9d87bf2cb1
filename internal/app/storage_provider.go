package app

import (
	"fmt"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/storage"
)

var (
	newGCSStore   = storage.NewGCS
	newLocalStore = storage.NewLocal
)

func resolveStorageProvider(log *logger.Logger, cfg Config) (storage.ObjectStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.StorageProvider))
	switch provider {
	case "gcs":
		return newGCSStore(log)
	case "local", "":
		return newLocalStore(log, cfg.LocalStorageRoot)
	default:
		return nil, fmt.Errorf("unknown storage provider %q, expected gcs or local", provider)
	}
}
