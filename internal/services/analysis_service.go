package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/analysis"
	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type AnalysisService interface {
	Run(ctx context.Context, userID string, documentID uuid.UUID) (*types.ContractAnalysis, error)
	Latest(ctx context.Context, userID string, documentID uuid.UUID) (*types.ContractAnalysis, error)
}

type analysisService struct {
	log      *logger.Logger
	analyzer *analysis.Analyzer
	docs     repos.DocumentRepo
	runs     repos.AnalysisRepo
}

func NewAnalysisService(
	baseLog *logger.Logger,
	analyzer *analysis.Analyzer,
	docs repos.DocumentRepo,
	runs repos.AnalysisRepo,
) AnalysisService {
	return &analysisService{
		log:      baseLog.With("service", "AnalysisService"),
		analyzer: analyzer,
		docs:     docs,
		runs:     runs,
	}
}

// Run starts a fresh analysis for a ready document. A new run always
// supersedes the previous one; Latest only ever reports the newest.
func (s *analysisService) Run(ctx context.Context, userID string, documentID uuid.UUID) (*types.ContractAnalysis, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != types.DocumentStatusReady {
		return nil, errors.InvalidInput("AnalysisService.Run",
			fmt.Sprintf("document is not ready for analysis (status %s)", doc.Status))
	}
	return s.analyzer.Analyze(ctx, nil, userID, documentID)
}

func (s *analysisService) Latest(ctx context.Context, userID string, documentID uuid.UUID) (*types.ContractAnalysis, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	run, err := s.runs.GetLatestByDocumentID(ctx, nil, documentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("AnalysisService.Latest", "no analysis run for document")
		}
		return nil, err
	}
	return run, nil
}

func (s *analysisService) ownedDocument(ctx context.Context, userID string, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, documentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("AnalysisService", "document not found")
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.NotFound("AnalysisService", "document not found")
	}
	return doc, nil
}
