package repos

import (
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos/documents"
	"github.com/contractsense/contractsense-backend/internal/data/repos/history"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type DocumentRepo = documents.DocumentRepo
type ChunkRepo = documents.ChunkRepo

type QueryResponseRepo = history.QueryResponseRepo
type AnalysisRepo = history.AnalysisRepo

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, baseLog)
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return documents.NewChunkRepo(db, baseLog)
}

func NewQueryResponseRepo(db *gorm.DB, baseLog *logger.Logger) QueryResponseRepo {
	return history.NewQueryResponseRepo(db, baseLog)
}

func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	return history.NewAnalysisRepo(db, baseLog)
}
