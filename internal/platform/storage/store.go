// Package storage persists raw uploaded documents. Keys are opaque;
// callers derive them from document IDs.
package storage

import "context"

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
