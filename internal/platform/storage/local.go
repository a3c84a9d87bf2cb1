package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type localStore struct {
	log  *logger.Logger
	root string
}

// NewLocal stores objects under root on the local filesystem. Used for
// development and tests where no bucket is available.
func NewLocal(log *logger.Logger, root string) (ObjectStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStore{
		log:  log.With("service", "storage.Local"),
		root: root,
	}, nil
}

// resolve rejects keys that would escape the root directory.
func (s *localStore) resolve(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.InvalidInput("storage.local", "object key required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.InvalidInput("storage.local", "invalid object key")
	}
	return path, nil
}

func (s *localStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	const op = "storage.local.put"
	if err := ctx.Err(); err != nil {
		return errors.External(op, "canceled", false, err)
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.External(op, "create object dir failed", false, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.External(op, "write object failed", false, err)
	}
	return nil
}

func (s *localStore) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.local.get"
	if err := ctx.Err(); err != nil {
		return nil, errors.External(op, "canceled", false, err)
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(op, "object not found")
		}
		return nil, errors.External(op, "read object failed", false, err)
	}
	return data, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	const op = "storage.local.delete"
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.External(op, "delete object failed", false, err)
	}
	return nil
}
