package app

import (
	"strings"
	"testing"
)

func TestResolveStorageProviderLocalDefault(t *testing.T) {
	log := testLog(t)

	store, err := resolveStorageProvider(log, Config{
		StorageProvider:  "",
		LocalStorageRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("resolveStorageProvider: %v", err)
	}
	if store == nil {
		t.Fatalf("expected local object store")
	}
}

func TestResolveStorageProviderUnknown(t *testing.T) {
	log := testLog(t)

	_, err := resolveStorageProvider(log, Config{StorageProvider: "s3"})
	if err == nil {
		t.Fatalf("expected error for unknown storage provider")
	}
	if !strings.Contains(err.Error(), "unknown storage provider") {
		t.Fatalf("error text: got %q", err.Error())
	}
}

func TestResolveOCRProviderDisabled(t *testing.T) {
	log := testLog(t)

	engine, err := resolveOCRProvider(log, Config{OCRProvider: "disabled"})
	if err != nil {
		t.Fatalf("resolveOCRProvider: %v", err)
	}
	if engine != nil {
		t.Fatalf("disabled provider must yield nil engine")
	}
}

func TestResolveOCRProviderUnknown(t *testing.T) {
	log := testLog(t)

	_, err := resolveOCRProvider(log, Config{OCRProvider: "tesseract"})
	if err == nil {
		t.Fatalf("expected error for unknown ocr provider")
	}
}
