package app

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

// openDatabase connects per DB_DRIVER: postgres for deployments,
// sqlite for local development with zero infrastructure.
func openDatabase(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch strings.TrimSpace(strings.ToLower(cfg.DBDriver)) {
	case "postgres", "":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			log.Warn("could not ensure uuid-ossp extension", "error", err)
		}
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q, expected postgres or sqlite", cfg.DBDriver)
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Document{},
		&types.Chunk{},
		&types.QueryResponse{},
		&types.ContractAnalysis{},
	)
}
