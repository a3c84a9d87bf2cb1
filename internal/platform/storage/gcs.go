package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	gstorage "cloud.google.com/go/storage"

	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/gcputil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *gstorage.Client
	bucket string
	prefix string
}

func NewGCS(log *logger.Logger) (ObjectStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	bucket := strings.TrimSpace(envutil.Str("GCS_BUCKET", ""))
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required for gcs storage")
	}

	client, err := gstorage.NewClient(context.Background(), gcputil.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	slog := log.With("service", "storage.GCS")
	slog.Info("GCS object store selected", "bucket", bucket)

	return &gcsStore{
		log:    slog,
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(envutil.Str("GCS_PREFIX", "documents")), "/"),
	}, nil
}

func (s *gcsStore) objectKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *gcsStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	const op = "storage.gcs.put"
	w := s.client.Bucket(s.bucket).Object(s.objectKey(key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.External(op, "write object failed", true, err)
	}
	if err := w.Close(); err != nil {
		return errors.External(op, "finalize object failed", true, err)
	}
	return nil
}

func (s *gcsStore) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.gcs.get"
	r, err := s.client.Bucket(s.bucket).Object(s.objectKey(key)).NewReader(ctx)
	if err != nil {
		if err == gstorage.ErrObjectNotExist {
			return nil, errors.NotFound(op, "object not found")
		}
		return nil, errors.External(op, "open object failed", true, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.External(op, "read object failed", true, err)
	}
	return data, nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	const op = "storage.gcs.delete"
	err := s.client.Bucket(s.bucket).Object(s.objectKey(key)).Delete(ctx)
	if err != nil && err != gstorage.ErrObjectNotExist {
		return errors.External(op, "delete object failed", true, err)
	}
	return nil
}
