// Package memory is an in-process vector store for local development
// and tests. Cosine similarity over normalized float32 vectors.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore"
)

type entry struct {
	values   []float32
	metadata map[string]any
}

type store struct {
	log *logger.Logger
	dim int

	mu         sync.RWMutex
	namespaces map[string]map[string]entry
}

// New builds an empty store. dim of 0 disables dimension validation;
// otherwise the first differing vector is rejected.
func New(log *logger.Logger, dim int) vectorstore.Store {
	return &store{
		log:        log.With("service", "MemoryVectorStore"),
		dim:        dim,
		namespaces: make(map[string]map[string]entry),
	}
}

func (s *store) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	const op = "memory.upsert"
	if err := ctx.Err(); err != nil {
		return errors.External(op, "canceled", false, err)
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]entry, len(vectors))
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return errors.InvalidInput(op, "vector id is required")
		}
		if len(v.Values) == 0 {
			return errors.InvalidInput(op, "vector "+id+" has empty values")
		}
		if s.dim > 0 && len(v.Values) != s.dim {
			return errors.InvalidInput(op, "vector "+id+" dimension mismatch")
		}
		vals := make([]float32, len(v.Values))
		copy(vals, v.Values)
		ns[id] = entry{values: vals, metadata: v.Metadata}
	}
	return nil
}

func (s *store) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
	const op = "memory.query"
	if err := ctx.Err(); err != nil {
		return nil, errors.External(op, "canceled", false, err)
	}
	if len(q) == 0 {
		return nil, errors.InvalidInput(op, "query vector required")
	}
	if s.dim > 0 && len(q) != s.dim {
		return nil, errors.InvalidInput(op, "query vector dimension mismatch")
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	out := make([]vectorstore.Match, 0, len(ns))
	for id, e := range ns {
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		out = append(out, vectorstore.Match{ID: id, Score: cosine(q, e.values)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *store) QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error) {
	matches, err := s.QueryMatches(ctx, namespace, q, topK, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (s *store) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	const op = "memory.delete"
	if err := ctx.Err(); err != nil {
		return errors.External(op, "canceled", false, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.namespaces[namespace]
	for _, id := range ids {
		delete(ns, strings.TrimSpace(id))
	}
	if len(ns) == 0 {
		delete(s.namespaces, namespace)
	}
	return nil
}

func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
