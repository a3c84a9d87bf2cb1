// Package retriever turns a natural-language query into the ranked set
// of contract chunks most likely to answer it.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore"
)

const (
	DefaultTopK      = 5
	DefaultThreshold = 0.25
)

// Hit pairs a chunk with its similarity to the query. Hits are ordered
// by descending score; equal scores fall back to the lower sequence
// index so repeated calls rank identically.
type Hit struct {
	Chunk *types.Chunk
	Score float64
}

// Embedder is the query-side slice of the OpenAI client.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Provider() string
	EmbedModel() string
}

type Retriever struct {
	log       *logger.Logger
	embedder  Embedder
	store     vectorstore.Store
	docs      repos.DocumentRepo
	chunks    repos.ChunkRepo
	threshold float64
	topK      int
}

type Option func(*Retriever)

func WithThreshold(v float64) Option {
	return func(r *Retriever) {
		if v >= 0 && v <= 1 {
			r.threshold = v
		}
	}
}

func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

func New(log *logger.Logger, embedder Embedder, store vectorstore.Store, docs repos.DocumentRepo, chunks repos.ChunkRepo, opts ...Option) *Retriever {
	r := &Retriever{
		log:       log.With("component", "retriever"),
		embedder:  embedder,
		store:     store,
		docs:      docs,
		chunks:    chunks,
		threshold: envutil.Float("RAG_SIMILARITY_THRESHOLD", DefaultThreshold),
		topK:      envutil.Int("RAG_TOP_K", DefaultTopK),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query and searches the given document's vectors.
// A nil document id searches every ready document owned by userID. An
// empty result means nothing cleared the similarity threshold; that is
// a valid outcome consumed by the composer, not an error.
func (r *Retriever) Retrieve(ctx context.Context, tx *gorm.DB, userID string, documentID uuid.UUID, query string, k int) ([]Hit, error) {
	if query == "" {
		return nil, errors.InvalidInput("retriever.Retrieve", "query is required")
	}
	if k <= 0 {
		k = r.topK
	}

	targets, err := r.resolveTargets(ctx, tx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	for _, doc := range targets {
		if err := r.checkIndexCompat(doc, 0); err != nil {
			return nil, err
		}
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, errors.External("retriever.Retrieve", "embedding provider returned no query vector", false, nil)
	}
	qvec := vecs[0]
	for _, doc := range targets {
		if err := r.checkIndexCompat(doc, len(qvec)); err != nil {
			return nil, err
		}
	}

	// Over-fetch per document so the merged cross-document cut still
	// has K candidates after thresholding.
	perDoc := k
	if len(targets) > 1 {
		perDoc = k * 2
	}

	var matches []vectorstore.Match
	for _, doc := range targets {
		m, err := r.store.QueryMatches(ctx, doc.ID.String(), qvec, perDoc, nil)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m...)
	}

	return r.rank(ctx, tx, matches, k)
}

func (r *Retriever) resolveTargets(ctx context.Context, tx *gorm.DB, userID string, documentID uuid.UUID) ([]*types.Document, error) {
	if documentID == uuid.Nil {
		return r.docs.ListReadyByUserID(ctx, tx, userID)
	}
	doc, err := r.docs.GetByID(ctx, tx, documentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("retriever.Retrieve", "document not found")
		}
		return nil, err
	}
	if doc.Status != types.DocumentStatusReady {
		return nil, errors.InvalidInput("retriever.Retrieve",
			fmt.Sprintf("document is not ready for querying (status %s)", doc.Status))
	}
	return []*types.Document{doc}, nil
}

// checkIndexCompat refuses to embed a query with a different provider,
// model or dimensionality than the one the document was indexed with.
// Comparing vectors from mismatched models silently degrades ranking,
// so this is fatal rather than a warning.
func (r *Retriever) checkIndexCompat(doc *types.Document, queryDim int) error {
	if doc.EmbedProvider != "" && doc.EmbedProvider != r.embedder.Provider() {
		return errors.ConfigMismatch("retriever.Retrieve",
			fmt.Sprintf("document %s indexed with provider %q, live provider is %q",
				doc.ID, doc.EmbedProvider, r.embedder.Provider()))
	}
	if doc.EmbedModel != "" && doc.EmbedModel != r.embedder.EmbedModel() {
		return errors.ConfigMismatch("retriever.Retrieve",
			fmt.Sprintf("document %s indexed with model %q, live model is %q",
				doc.ID, doc.EmbedModel, r.embedder.EmbedModel()))
	}
	if queryDim > 0 && doc.EmbedDim > 0 && doc.EmbedDim != queryDim {
		return errors.ConfigMismatch("retriever.Retrieve",
			fmt.Sprintf("document %s indexed with %d-dim vectors, query vector has %d",
				doc.ID, doc.EmbedDim, queryDim))
	}
	return nil
}

// rank filters by threshold, dedupes by chunk id keeping the best
// score, loads the chunk rows and applies the deterministic ordering.
func (r *Retriever) rank(ctx context.Context, tx *gorm.DB, matches []vectorstore.Match, k int) ([]Hit, error) {
	best := make(map[uuid.UUID]float64)
	for _, m := range matches {
		if m.Score < r.threshold {
			continue
		}
		id, err := uuid.Parse(m.ID)
		if err != nil {
			r.log.Warn("skipping vector with non-uuid id", "vector_id", m.ID)
			continue
		}
		if prev, ok := best[id]; !ok || m.Score > prev {
			best[id] = m.Score
		}
	}
	if len(best) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	rows, err := r.chunks.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, Hit{Chunk: row, Score: best[row.ID]})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
