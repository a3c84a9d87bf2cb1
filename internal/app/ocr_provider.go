package app

import (
	"fmt"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/ocr"
)

var (
	newDocumentAIEngine = ocr.NewDocumentAI
	newVisionEngine     = ocr.NewVision
)

// resolveOCRProvider picks the scanned-document fallback: Document AI
// for best structure fidelity, Vision as the lighter option, or
// disabled when only born-digital files are expected. Disabled is not
// an error; PDFs without a text layer then fail extraction cleanly.
func resolveOCRProvider(log *logger.Logger, cfg Config) (ocr.Engine, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.OCRProvider))
	switch provider {
	case "docai":
		return newDocumentAIEngine(log)
	case "vision":
		return newVisionEngine(log)
	case "disabled", "":
		log.Info("OCR disabled; scanned documents will be rejected")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ocr provider %q, expected docai, vision or disabled", provider)
	}
}
