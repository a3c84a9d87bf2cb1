package app

import (
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type Repos struct {
	Documents repos.DocumentRepo
	Chunks    repos.ChunkRepo
	Queries   repos.QueryResponseRepo
	Analyses  repos.AnalysisRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Documents: repos.NewDocumentRepo(db, log),
		Chunks:    repos.NewChunkRepo(db, log),
		Queries:   repos.NewQueryResponseRepo(db, log),
		Analyses:  repos.NewAnalysisRepo(db, log),
	}
}
