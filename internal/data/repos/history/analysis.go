package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type AnalysisRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *types.ContractAnalysis) (*types.ContractAnalysis, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContractAnalysis, error)
	GetLatestByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.ContractAnalysis, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type analysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisRepo {
	return &analysisRepo{db: db, log: baseLog.With("repo", "AnalysisRepo")}
}

func (r *analysisRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *analysisRepo) Create(ctx context.Context, tx *gorm.DB, a *types.ContractAnalysis) (*types.ContractAnalysis, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = types.AnalysisPending
	}
	if err := r.conn(tx).WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *analysisRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContractAnalysis, error) {
	var a types.ContractAnalysis
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *analysisRepo) GetLatestByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.ContractAnalysis, error) {
	var a types.ContractAnalysis
	if err := r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("started_at DESC").
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *analysisRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.ContractAnalysis{}).
		Where("id = ?", id).
		Updates(updates).Error
}
