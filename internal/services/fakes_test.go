package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/contractsense/contractsense-backend/internal/domain"
)

type fakeDocumentRepo struct {
	mu          sync.Mutex
	docs        map[uuid.UUID]*types.Document
	transitions map[uuid.UUID][]types.DocumentStatus
	updates     int
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:        make(map[uuid.UUID]*types.Document),
		transitions: make(map[uuid.UUID][]types.DocumentStatus),
	}
}

func (f *fakeDocumentRepo) Create(_ context.Context, _ *gorm.DB, doc *types.Document) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	cp := *doc
	f.docs[doc.ID] = &cp
	return doc, nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeDocumentRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID string) ([]*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Document
	for _, d := range f.docs {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (f *fakeDocumentRepo) ListReadyByUserID(_ context.Context, _ *gorm.DB, userID string) ([]*types.Document, error) {
	all, _ := f.ListByUserID(nil, nil, userID)
	var out []*types.Document
	for _, d := range all {
		if d.Status == types.DocumentStatusReady {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) GetByContentHash(_ context.Context, _ *gorm.DB, userID, hash string) (*types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.UserID == userID && d.ContentHash == hash {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDocumentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.updates++
	if status, ok := updates["status"].(types.DocumentStatus); ok {
		doc.Status = status
		f.transitions[id] = append(f.transitions[id], status)
	}
	if reason, ok := updates["failure_reason"].(string); ok {
		doc.FailureReason = reason
	}
	if n, ok := updates["chunk_count"].(int); ok {
		doc.ChunkCount = n
	}
	return nil
}

func (f *fakeDocumentRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentRepo) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func (f *fakeDocumentRepo) transitionsFor(id uuid.UUID) []types.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.DocumentStatus(nil), f.transitions[id]...)
}

type fakeChunkRepo struct {
	mu     sync.Mutex
	chunks map[uuid.UUID]*types.Chunk
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: make(map[uuid.UUID]*types.Chunk)}
}

func (f *fakeChunkRepo) Create(_ context.Context, _ *gorm.DB, chunks []*types.Chunk) ([]*types.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range chunks {
		f.chunks[ch.ID] = ch
	}
	return chunks, nil
}

func (f *fakeChunkRepo) GetByDocumentID(_ context.Context, _ *gorm.DB, documentID uuid.UUID) ([]*types.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Chunk
	for _, ch := range f.chunks {
		if ch.DocumentID == documentID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeChunkRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Chunk
	for _, id := range ids {
		if ch, ok := f.chunks[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChunkRepo) DeleteByDocumentID(_ context.Context, _ *gorm.DB, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.chunks {
		if ch.DocumentID == documentID {
			delete(f.chunks, id)
		}
	}
	return nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	responses []*types.QueryResponse
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (f *fakeHistoryRepo) Create(_ context.Context, _ *gorm.DB, resp *types.QueryResponse) (*types.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	f.responses = append(f.responses, resp)
	return resp, nil
}

func (f *fakeHistoryRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID string, _ int) ([]*types.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.QueryResponse
	for _, r := range f.responses {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) ListByDocumentID(_ context.Context, _ *gorm.DB, documentID uuid.UUID, _ int) ([]*types.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.QueryResponse
	for _, r := range f.responses {
		if r.DocumentID == documentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) RecentQuestions(_ context.Context, _ *gorm.DB, userID string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for i := len(f.responses) - 1; i >= 0; i-- {
		r := f.responses[i]
		if r.UserID != userID || seen[r.Question] {
			continue
		}
		seen[r.Question] = true
		out = append(out, r.Question)
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteByID(_ context.Context, _ *gorm.DB, userID string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.responses {
		if r.ID == id && r.UserID == userID {
			f.responses = append(f.responses[:i], f.responses[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeHistoryRepo) DeleteBySessionID(_ context.Context, _ *gorm.DB, userID string, sessionID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.responses[:0]
	for _, r := range f.responses {
		if r.SessionID == sessionID && r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.responses = kept
	return n, nil
}

func (f *fakeHistoryRepo) DeleteByDocumentID(_ context.Context, _ *gorm.DB, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.responses[:0]
	for _, r := range f.responses {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	f.responses = kept
	return nil
}

func (f *fakeHistoryRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responses)
}
