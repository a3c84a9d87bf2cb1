package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/ingestion/chunker"
	"github.com/contractsense/contractsense-backend/internal/ingestion/extractor"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/openai"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore"
)

// Metadata keys attached to every vector so retrieval filters can
// scope matches without a round trip to Postgres.
const (
	MetaDocumentID = "document_id"
	MetaSeq        = "seq"
)

// Result reports what a successful Index run produced. The caller is
// responsible for persisting these onto the document row.
type Result struct {
	ChunkCount int
	Provider   string
	Model      string
	Dim        int
}

// Embedder is the slice of the OpenAI client the indexer needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Provider() string
	EmbedModel() string
}

var _ Embedder = (openai.Client)(nil)

type Indexer struct {
	log       *logger.Logger
	embedder  Embedder
	store     vectorstore.Store
	chunks    repos.ChunkRepo
	splitter  *chunker.Splitter
	cache     EmbedCache
	batchSize int

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

type Option func(*Indexer)

func WithSplitter(s *chunker.Splitter) Option {
	return func(ix *Indexer) { ix.splitter = s }
}

func WithCache(c EmbedCache) Option {
	return func(ix *Indexer) {
		if c != nil {
			ix.cache = c
		}
	}
}

func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

func New(log *logger.Logger, embedder Embedder, store vectorstore.Store, chunks repos.ChunkRepo, opts ...Option) *Indexer {
	ix := &Indexer{
		log:       log.With("component", "indexer"),
		embedder:  embedder,
		store:     store,
		chunks:    chunks,
		splitter:  chunker.New(),
		cache:     NewLRUCache(envutil.Int("EMBED_CACHE_SIZE", 2048)),
		batchSize: envutil.Int("EMBED_BATCH_SIZE", 64),
		inflight:  make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index chunks the extracted text, embeds every chunk and writes the
// vectors and chunk rows. It is all or nothing: on any failure no chunk
// rows survive and any vectors already written are rolled back. A rerun
// for the same document first discards the previous index, so Index is
// safe to call again after a partial failure or a re-upload.
//
// Only one run per document is admitted at a time. A concurrent call
// for the same document fails fast with KindInvalidInput.
func (ix *Indexer) Index(ctx context.Context, tx *gorm.DB, doc *types.Document, ext *extractor.Result) (*Result, error) {
	if doc == nil || doc.ID == uuid.Nil {
		return nil, errors.InvalidInput("indexer.Index", "document is required")
	}
	if ext == nil || ext.Text == "" {
		return nil, errors.InvalidInput("indexer.Index", "no text to index")
	}
	if !ix.acquire(doc.ID) {
		return nil, errors.InvalidInput("indexer.Index", "indexing already in progress for document")
	}
	defer ix.release(doc.ID)

	namespace := doc.ID.String()

	if err := ix.discardExisting(ctx, tx, doc.ID, namespace); err != nil {
		return nil, err
	}

	spans := ix.splitter.Split(ext.Text)
	if len(spans) == 0 {
		return nil, errors.InvalidInput("indexer.Index", "text produced no chunks")
	}

	rows := make([]*types.Chunk, len(spans))
	for i, sp := range spans {
		rows[i] = &types.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Seq:        sp.Seq,
			Text:       sp.Text,
			StartRune:  sp.Start,
			EndRune:    sp.End,
			Page:       ext.PageForOffset(sp.Start),
		}
	}

	embeddings, dim, err := ix.embedAll(ctx, spans)
	if err != nil {
		return nil, err
	}

	vectors := make([]vectorstore.Vector, len(rows))
	for i, row := range rows {
		vectors[i] = vectorstore.Vector{
			ID:     row.VectorID(),
			Values: embeddings[i],
			Metadata: map[string]interface{}{
				MetaDocumentID: doc.ID.String(),
				MetaSeq:        row.Seq,
			},
		}
	}
	if err := ix.store.Upsert(ctx, namespace, vectors); err != nil {
		return nil, err
	}

	if _, err := ix.chunks.Create(ctx, tx, rows); err != nil {
		// Vectors without chunk rows would be unciteable; undo them.
		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.VectorID()
		}
		if derr := ix.store.DeleteIDs(context.WithoutCancel(ctx), namespace, ids); derr != nil {
			ix.log.Error("vector rollback failed after chunk write error",
				"document_id", doc.ID, "error", derr)
		}
		return nil, err
	}

	ix.log.Info("document indexed",
		"document_id", doc.ID,
		"chunks", len(rows),
		"embed_model", ix.embedder.EmbedModel(),
		"embed_dim", dim)

	return &Result{
		ChunkCount: len(rows),
		Provider:   ix.embedder.Provider(),
		Model:      ix.embedder.EmbedModel(),
		Dim:        dim,
	}, nil
}

// Discard removes every trace of a document from the index. Used when a
// document is deleted.
func (ix *Indexer) Discard(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return errors.InvalidInput("indexer.Discard", "document id is required")
	}
	return ix.discardExisting(ctx, tx, documentID, documentID.String())
}

func (ix *Indexer) acquire(id uuid.UUID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, busy := ix.inflight[id]; busy {
		return false
	}
	ix.inflight[id] = struct{}{}
	return true
}

func (ix *Indexer) release(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.inflight, id)
}

func (ix *Indexer) discardExisting(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, namespace string) error {
	existing, err := ix.chunks.GetByDocumentID(ctx, tx, documentID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		ids := make([]string, len(existing))
		for i, ch := range existing {
			ids[i] = ch.VectorID()
		}
		if err := ix.store.DeleteIDs(ctx, namespace, ids); err != nil {
			return err
		}
	}
	return ix.chunks.DeleteByDocumentID(ctx, tx, documentID)
}

// embedAll resolves embeddings for every span, serving repeats from the
// cache and batching the remainder through the provider. Returns one
// vector per span, in span order.
func (ix *Indexer) embedAll(ctx context.Context, spans []chunker.Span) ([][]float32, int, error) {
	model := ix.embedder.EmbedModel()
	out := make([][]float32, len(spans))
	keys := make([]string, len(spans))

	var missing []int
	for i, sp := range spans {
		keys[i] = CacheKey(model, sp.Text)
		if vec, ok := ix.cache.Get(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		inputs := make([]string, len(batch))
		for j, idx := range batch {
			inputs[j] = spans[idx].Text
		}
		vecs, err := ix.embedder.Embed(ctx, inputs)
		if err != nil {
			return nil, 0, errors.External("indexer.embedAll",
				fmt.Sprintf("embedding failed at chunk %d", spans[batch[0]].Seq), false, err)
		}
		if len(vecs) != len(inputs) {
			return nil, 0, errors.External("indexer.embedAll",
				fmt.Sprintf("embedding count mismatch: want %d got %d", len(inputs), len(vecs)), false, nil)
		}
		for j, idx := range batch {
			out[idx] = vecs[j]
			ix.cache.Set(ctx, keys[idx], vecs[j])
		}
	}

	dim := 0
	for i, vec := range out {
		if len(vec) == 0 {
			return nil, 0, errors.External("indexer.embedAll",
				fmt.Sprintf("empty embedding for chunk %d", spans[i].Seq), false, nil)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, 0, errors.External("indexer.embedAll",
				fmt.Sprintf("inconsistent embedding dims: %d vs %d", dim, len(vec)), false, nil)
		}
	}
	return out, dim, nil
}
