package app

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/qdrant"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore"
	"github.com/contractsense/contractsense-backend/internal/platform/vectorstore/memory"
)

var newQdrantVectorStore = qdrant.NewVectorStore

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider    VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL   VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL   VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingCollection  VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingVectorDim   VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidVectorDim   VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorConnectFailed      VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v",
		e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStoreProvider picks the similarity index backend:
// "qdrant" for real deployments, "memory" for development and tests.
func resolveVectorStoreProvider(log *logger.Logger, cfg Config) (vectorstore.Store, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))

	switch provider {
	case "qdrant":
		qcfg, err := qdrant.ResolveConfigFromEnv()
		if err != nil {
			return nil, classifyVectorProviderBootstrapError(provider, err)
		}
		log.Info("Selecting vector store provider",
			"provider", provider,
			"qdrant_url", qcfg.URL,
			"qdrant_collection", qcfg.Collection,
			"qdrant_namespace_prefix", qcfg.NamespacePrefix,
			"qdrant_vector_dim", qcfg.VectorDim)
		vs, err := newQdrantVectorStore(log, qcfg)
		if err != nil {
			classified := classifyVectorProviderBootstrapError(provider, err)
			log.Error("Vector store provider bootstrap failed",
				"provider", provider, "error", classified)
			return nil, classified
		}
		return vs, nil
	case "memory":
		dim := envutil.Int("QDRANT_VECTOR_DIM", 1536)
		log.Info("Selecting vector store provider", "provider", provider, "vector_dim", dim)
		return memory.New(log, dim), nil
	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unknown vector provider %q, expected qdrant or memory", provider),
		}
	}
}

func classifyVectorProviderBootstrapError(provider string, err error) *VectorProviderBootstrapError {
	code := VectorProviderBootstrapErrorProviderInitFailed

	var cfgErr *qdrant.ConfigError
	if stderrors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			code = VectorProviderBootstrapErrorMissingQdrantURL
		case qdrant.ConfigErrorInvalidURL:
			code = VectorProviderBootstrapErrorInvalidQdrantURL
		case qdrant.ConfigErrorMissingCollection:
			code = VectorProviderBootstrapErrorMissingCollection
		case qdrant.ConfigErrorMissingVectorDim:
			code = VectorProviderBootstrapErrorMissingVectorDim
		case qdrant.ConfigErrorInvalidVectorDim:
			code = VectorProviderBootstrapErrorInvalidVectorDim
		}
	}
	var opErr *qdrant.OperationError
	if stderrors.As(err, &opErr) {
		if opErr.Code == qdrant.OperationErrorTransportFailed || opErr.Code == qdrant.OperationErrorTimeout {
			code = VectorProviderBootstrapErrorConnectFailed
		}
	}

	return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
}
