package app

import (
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	HTTPAddr    string

	DBDriver    string
	PostgresDSN string
	SQLitePath  string

	VectorProvider  string
	OCRProvider     string
	StorageProvider string

	LocalStorageRoot string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName: envutil.Str("SERVICE_NAME", "contractsense"),
		Environment: envutil.Str("APP_ENV", "development"),
		HTTPAddr:    envutil.Str("HTTP_ADDR", ":8080"),

		DBDriver:    envutil.Str("DB_DRIVER", "postgres"),
		PostgresDSN: envutil.Str("POSTGRES_DSN", ""),
		SQLitePath:  envutil.Str("SQLITE_PATH", "contractsense.db"),

		VectorProvider:  envutil.Str("VECTOR_PROVIDER", "qdrant"),
		OCRProvider:     envutil.Str("OCR_PROVIDER", "disabled"),
		StorageProvider: envutil.Str("STORAGE_PROVIDER", "local"),

		LocalStorageRoot: envutil.Str("LOCAL_STORAGE_ROOT", "data/objects"),
	}
	log.Info("Configuration loaded",
		"service", cfg.ServiceName,
		"env", cfg.Environment,
		"db_driver", cfg.DBDriver,
		"vector_provider", cfg.VectorProvider,
		"ocr_provider", cfg.OCRProvider,
		"storage_provider", cfg.StorageProvider)
	return cfg
}
