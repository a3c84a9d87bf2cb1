// Package vectorstore defines the similarity index used for chunk
// retrieval. Implementations must return matches in descending score
// order with ties broken by vector ID so retrieval stays deterministic.
package vectorstore

import "context"

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

type Match struct {
	ID    string
	Score float64
}

type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]Match, error)
	QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}
