package qdrant

import (
	"errors"
	"testing"
)

func TestResolveConfigFromEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "contracts")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")
	t.Setenv("QDRANT_NAMESPACE_PREFIX", "")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" {
		t.Fatalf("url: got=%q", cfg.URL)
	}
	if cfg.Collection != "contracts" {
		t.Fatalf("collection: got=%q", cfg.Collection)
	}
	if cfg.VectorDim != 1536 {
		t.Fatalf("vector dim: got=%d", cfg.VectorDim)
	}
	if cfg.NamespacePrefix != "cs" {
		t.Fatalf("namespace prefix default: got=%q", cfg.NamespacePrefix)
	}
}

func TestResolveConfigMissingURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_COLLECTION", "contracts")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	_, err := ResolveConfigFromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorMissingURL {
		t.Fatalf("code: want=%q got=%q", ConfigErrorMissingURL, cfgErr.Code)
	}
}

func TestResolveConfigInvalidVectorDim(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "contracts")
	t.Setenv("QDRANT_VECTOR_DIM", "abc")

	_, err := ResolveConfigFromEnv()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidVectorDim {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidVectorDim, cfgErr.Code)
	}
}

func TestValidateConfigRejectsRelativeURL(t *testing.T) {
	err := ValidateConfig(Config{URL: "qdrant:6333", Collection: "contracts", VectorDim: 3}, true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidURL {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidURL, cfgErr.Code)
	}
}

func TestValidateConfigMissingVectorDim(t *testing.T) {
	err := ValidateConfig(Config{URL: "http://qdrant:6333", Collection: "contracts"}, false)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorMissingVectorDim {
		t.Fatalf("code: want=%q got=%q", ConfigErrorMissingVectorDim, cfgErr.Code)
	}
}
