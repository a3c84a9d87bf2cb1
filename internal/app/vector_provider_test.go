package app

import (
	stderrors "errors"
	"testing"

	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/qdrant"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore/memory"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() { log.Sync() })
	return log
}

func TestResolveVectorStoreProviderQdrantSelected(t *testing.T) {
	log := testLog(t)

	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "contractsense")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	orig := newQdrantVectorStore
	t.Cleanup(func() { newQdrantVectorStore = orig })

	stub := memory.New(log, 1536)
	var captured qdrant.Config
	newQdrantVectorStore = func(_ *logger.Logger, cfg qdrant.Config) (vectorstore.Store, error) {
		captured = cfg
		return stub, nil
	}

	vs, err := resolveVectorStoreProvider(log, Config{VectorProvider: "qdrant"})
	if err != nil {
		t.Fatalf("resolveVectorStoreProvider: %v", err)
	}
	if vs == nil {
		t.Fatalf("vector store: expected non-nil qdrant vector store")
	}
	if captured.URL != "http://qdrant:6333" {
		t.Fatalf("qdrant.URL: want=%q got=%q", "http://qdrant:6333", captured.URL)
	}
	if captured.Collection != "contractsense" {
		t.Fatalf("qdrant.Collection: want=%q got=%q", "contractsense", captured.Collection)
	}
	if captured.VectorDim != 1536 {
		t.Fatalf("qdrant.VectorDim: want=1536 got=%d", captured.VectorDim)
	}
}

func TestResolveVectorStoreProviderQdrantMissingURL(t *testing.T) {
	log := testLog(t)

	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_COLLECTION", "contractsense")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	called := false
	orig := newQdrantVectorStore
	t.Cleanup(func() { newQdrantVectorStore = orig })
	newQdrantVectorStore = func(_ *logger.Logger, _ qdrant.Config) (vectorstore.Store, error) {
		called = true
		return nil, nil
	}

	_, err := resolveVectorStoreProvider(log, Config{VectorProvider: "qdrant"})
	if err == nil {
		t.Fatalf("expected error for missing QDRANT_URL")
	}
	if called {
		t.Fatalf("qdrant store constructor should not run on config error")
	}
	var bootErr *VectorProviderBootstrapError
	if !stderrors.As(err, &bootErr) {
		t.Fatalf("error type: want *VectorProviderBootstrapError got %T", err)
	}
	if bootErr.Code != VectorProviderBootstrapErrorMissingQdrantURL {
		t.Fatalf("code: want=%s got=%s", VectorProviderBootstrapErrorMissingQdrantURL, bootErr.Code)
	}
}

func TestResolveVectorStoreProviderMemory(t *testing.T) {
	log := testLog(t)

	vs, err := resolveVectorStoreProvider(log, Config{VectorProvider: "memory"})
	if err != nil {
		t.Fatalf("resolveVectorStoreProvider: %v", err)
	}
	if vs == nil {
		t.Fatalf("vector store: expected in-memory store")
	}
}

func TestResolveVectorStoreProviderUnknown(t *testing.T) {
	log := testLog(t)

	_, err := resolveVectorStoreProvider(log, Config{VectorProvider: "weaviate"})
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	var bootErr *VectorProviderBootstrapError
	if !stderrors.As(err, &bootErr) {
		t.Fatalf("error type: want *VectorProviderBootstrapError got %T", err)
	}
	if bootErr.Code != VectorProviderBootstrapErrorInvalidProvider {
		t.Fatalf("code: want=%s got=%s", VectorProviderBootstrapErrorInvalidProvider, bootErr.Code)
	}
}
