package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Document, error)
	ListReadyByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Document, error)
	GetByContentHash(ctx context.Context, tx *gorm.DB, userID, hash string) (*types.Document, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.Status == "" {
		doc.Status = types.DocumentStatusUploaded
	}
	if err := r.conn(tx).WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Document, error) {
	var doc types.Document
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Document, error) {
	var out []*types.Document
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListReadyByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Document, error) {
	var out []*types.Document
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.DocumentStatusReady).
		Order("uploaded_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) GetByContentHash(ctx context.Context, tx *gorm.DB, userID, hash string) (*types.Document, error) {
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var doc types.Document
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND content_hash = ?", userID, hash).
		Order("uploaded_at DESC").
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Document{}).Error
}
