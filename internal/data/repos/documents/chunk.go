package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type ChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Chunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chunk, error)
	DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}
	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}

	// Keep batches small because Text is large.
	const batchSize = 100
	if err := r.conn(tx).WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Chunk, error) {
	var out []*types.Chunk
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chunk, error) {
	var out []*types.Chunk
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&types.Chunk{}).Error
}
