package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/ingestion/extractor"
	"github.com/contractsense/contractsense-backend/internal/ingestion/indexer"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/storage"
)

// DefaultMaxUploadBytes caps uploads before any processing happens.
const DefaultMaxUploadBytes = 50 << 20

// UploadResult distinguishes a fresh ingestion from a dedupe hit.
type UploadResult struct {
	Document  *types.Document
	Duplicate bool
}

type DocumentService interface {
	Upload(ctx context.Context, userID, filename string, data []byte) (*UploadResult, error)
	List(ctx context.Context, userID string) ([]*types.Document, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*types.Document, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type documentService struct {
	log       *logger.Logger
	docs      repos.DocumentRepo
	queries   repos.QueryResponseRepo
	store     storage.ObjectStore
	extractor *extractor.Extractor
	indexer   *indexer.Indexer
	maxBytes  int64
}

func NewDocumentService(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	queries repos.QueryResponseRepo,
	store storage.ObjectStore,
	ext *extractor.Extractor,
	ix *indexer.Indexer,
) DocumentService {
	return &documentService{
		log:       baseLog.With("service", "DocumentService"),
		docs:      docs,
		queries:   queries,
		store:     store,
		extractor: ext,
		indexer:   ix,
		maxBytes:  envutil.Int64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
	}
}

// Upload validates, stores and fully ingests one document. The pipeline
// runs inline: when Upload returns without error the document is either
// ready or, on a duplicate hit, whatever state the original reached.
// A previous attempt that ended in error does not count as a duplicate;
// the dead row is replaced and ingestion runs again.
func (s *documentService) Upload(ctx context.Context, userID, filename string, data []byte) (*UploadResult, error) {
	if userID == "" {
		return nil, errors.InvalidInput("DocumentService.Upload", "user id is required")
	}
	if len(data) == 0 {
		return nil, errors.InvalidInput("DocumentService.Upload", "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, errors.InvalidInput("DocumentService.Upload",
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}
	mediaType, err := mediaTypeFromFilename(filename)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if existing, err := s.docs.GetByContentHash(ctx, nil, userID, hash); err == nil {
		if existing.Status != types.DocumentStatusError {
			s.log.Info("duplicate upload detected",
				"user_id", userID, "document_id", existing.ID, "content_hash", hash[:12])
			return &UploadResult{Document: existing, Duplicate: true}, nil
		}
		// The earlier attempt ended in error, which is terminal for the
		// row. Re-uploading the same bytes replaces it with a fresh run.
		s.log.Info("re-upload of a failed document, retrying ingestion",
			"user_id", userID, "document_id", existing.ID, "content_hash", hash[:12])
		if err := s.Delete(ctx, userID, existing.ID); err != nil {
			return nil, err
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	storageKey := fmt.Sprintf("%s_%s", hash[:12], safeFilename(filename))
	if err := s.store.Put(ctx, storageKey, data, contentTypeFor(mediaType)); err != nil {
		return nil, err
	}

	doc, err := s.docs.Create(ctx, nil, &types.Document{
		UserID:      userID,
		Filename:    filename,
		StorageKey:  storageKey,
		MediaType:   mediaType,
		ByteSize:    int64(len(data)),
		ContentHash: hash,
		Status:      types.DocumentStatusUploaded,
	})
	if err != nil {
		return nil, err
	}

	if err := s.process(ctx, doc, data); err != nil {
		return nil, err
	}
	return &UploadResult{Document: doc}, nil
}

// process drives uploaded -> processing -> ready, or -> error with the
// reason recorded. Partial output never persists: an indexing failure
// leaves no chunks, no vectors and an error-status document.
func (s *documentService) process(ctx context.Context, doc *types.Document, data []byte) error {
	if err := s.transition(ctx, doc, types.DocumentStatusProcessing, nil); err != nil {
		return err
	}

	ext, err := s.extractor.Extract(ctx, doc.MediaType, data)
	if err != nil {
		return s.fail(ctx, doc, err)
	}

	res, err := s.indexer.Index(ctx, nil, doc, ext)
	if err != nil {
		return s.fail(ctx, doc, err)
	}

	now := time.Now().UTC()
	err = s.transition(ctx, doc, types.DocumentStatusReady, map[string]interface{}{
		"text":           ext.Text,
		"page_count":     ext.PageCount,
		"ocr_used":       ext.OCRUsed,
		"chunk_count":    res.ChunkCount,
		"embed_provider": res.Provider,
		"embed_model":    res.Model,
		"embed_dim":      res.Dim,
		"processed_at":   now,
		"failure_reason": "",
	})
	if err != nil {
		return err
	}
	doc.Text = ext.Text
	doc.PageCount = ext.PageCount
	doc.OCRUsed = ext.OCRUsed
	doc.ChunkCount = res.ChunkCount
	doc.EmbedProvider = res.Provider
	doc.EmbedModel = res.Model
	doc.EmbedDim = res.Dim
	doc.ProcessedAt = &now

	s.log.Info("document ingested",
		"document_id", doc.ID,
		"media_type", doc.MediaType,
		"chunks", res.ChunkCount,
		"ocr_used", ext.OCRUsed)
	return nil
}

func (s *documentService) fail(ctx context.Context, doc *types.Document, cause error) error {
	s.log.Error("ingestion failed",
		"document_id", doc.ID, "status", doc.Status, "error", cause)
	uerr := s.transition(context.WithoutCancel(ctx), doc, types.DocumentStatusError, map[string]interface{}{
		"failure_reason": cause.Error(),
	})
	if uerr != nil {
		s.log.Error("failed to record error status", "document_id", doc.ID, "error", uerr)
	}
	return cause
}

// transition enforces the monotonic status lifecycle before touching
// the row.
func (s *documentService) transition(ctx context.Context, doc *types.Document, next types.DocumentStatus, extra map[string]interface{}) error {
	if !doc.Status.CanTransition(next) {
		return errors.InvalidInput("DocumentService.transition",
			fmt.Sprintf("illegal status transition %s -> %s", doc.Status, next))
	}
	updates := map[string]interface{}{"status": next}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.docs.UpdateFields(ctx, nil, doc.ID, updates); err != nil {
		return err
	}
	doc.Status = next
	return nil
}

func (s *documentService) List(ctx context.Context, userID string) ([]*types.Document, error) {
	return s.docs.ListByUserID(ctx, nil, userID)
}

func (s *documentService) Get(ctx context.Context, userID string, id uuid.UUID) (*types.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("DocumentService.Get", "document not found")
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.NotFound("DocumentService.Get", "document not found")
	}
	return doc, nil
}

// Delete removes the stored object, the vectors, the chunk rows, the
// query history and finally the document row.
func (s *documentService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.indexer.Discard(ctx, nil, doc.ID); err != nil {
		return err
	}
	if err := s.queries.DeleteByDocumentID(ctx, nil, doc.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, nil, doc.ID); err != nil {
		return err
	}
	s.log.Info("document deleted", "document_id", doc.ID, "user_id", userID)
	return nil
}

func mediaTypeFromFilename(filename string) (types.MediaType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return types.MediaTypePDF, nil
	case ".docx":
		return types.MediaTypeDOCX, nil
	case ".txt":
		return types.MediaTypeTXT, nil
	}
	return "", errors.InvalidInput("DocumentService.Upload",
		fmt.Sprintf("unsupported file type %q, accepted: pdf, docx, txt", filepath.Ext(filename)))
}

func contentTypeFor(m types.MediaType) string {
	switch m {
	case types.MediaTypePDF:
		return "application/pdf"
	case types.MediaTypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// safeFilename keeps a recognizable name inside the storage key while
// stripping path separators and control characters.
func safeFilename(filename string) string {
	base := filepath.Base(filename)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		out = "upload"
	}
	return out
}
