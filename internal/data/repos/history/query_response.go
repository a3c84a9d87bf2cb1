package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type QueryResponseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, resp *types.QueryResponse) (*types.QueryResponse, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.QueryResponse, error)
	ListByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, limit int) ([]*types.QueryResponse, error)
	RecentQuestions(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]string, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, userID string, id uuid.UUID) error
	DeleteBySessionID(ctx context.Context, tx *gorm.DB, userID string, sessionID uuid.UUID) (int64, error)
	DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
}

type queryResponseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQueryResponseRepo(db *gorm.DB, baseLog *logger.Logger) QueryResponseRepo {
	return &queryResponseRepo{db: db, log: baseLog.With("repo", "QueryResponseRepo")}
}

func (r *queryResponseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *queryResponseRepo) Create(ctx context.Context, tx *gorm.DB, resp *types.QueryResponse) (*types.QueryResponse, error) {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	if err := r.conn(tx).WithContext(ctx).Create(resp).Error; err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *queryResponseRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.QueryResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.QueryResponse
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *queryResponseRepo) ListByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, limit int) ([]*types.QueryResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.QueryResponse
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RecentQuestions feeds query suggestions; duplicates are collapsed in
// arrival order, newest first.
func (r *queryResponseRepo) RecentQuestions(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.QueryResponse
	if err := r.conn(tx).WithContext(ctx).
		Select("question", "created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit * 4).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, limit)
	for _, row := range rows {
		if _, dup := seen[row.Question]; dup {
			continue
		}
		seen[row.Question] = struct{}{}
		out = append(out, row.Question)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// DeleteByID is user-scoped so one user cannot remove another's history.
func (r *queryResponseRepo) DeleteByID(ctx context.Context, tx *gorm.DB, userID string, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	res := r.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.QueryResponse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBySessionID clears a whole conversation. Clearing an empty or
// unknown session is not an error; the count lets callers report it.
func (r *queryResponseRepo) DeleteBySessionID(ctx context.Context, tx *gorm.DB, userID string, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, nil
	}
	res := r.conn(tx).WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&types.QueryResponse{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *queryResponseRepo) DeleteByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&types.QueryResponse{}).Error
}
