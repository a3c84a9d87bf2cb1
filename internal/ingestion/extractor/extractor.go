// Package extractor turns uploaded documents into normalized plain
// text. PDFs read the embedded text layer first and fall back to OCR
// when it is missing or too thin; DOCX and TXT never need OCR.
package extractor

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/ocr"
)

// Result is the normalized extraction output. PageStarts maps rune
// offsets in Text back to 1-based page numbers for citation; it is
// empty when the source format has no page structure.
type Result struct {
	Text        string
	PageCount   int
	PageStarts  []int
	OCRUsed     bool
	OCRProvider string
}

// PageForOffset returns the 1-based page containing the given rune
// offset, or nil when no page map exists.
func (r *Result) PageForOffset(startRune int) *int {
	if len(r.PageStarts) == 0 {
		return nil
	}
	idx := sort.Search(len(r.PageStarts), func(i int) bool {
		return r.PageStarts[i] > startRune
	})
	page := idx // PageStarts[idx-1] <= startRune, pages are 1-based
	if page < 1 {
		page = 1
	}
	if page > len(r.PageStarts) {
		page = len(r.PageStarts)
	}
	return &page
}

type Extractor struct {
	log    *logger.Logger
	ocr    ocr.Engine
	runner CommandRunner

	// Below this many runes a PDF text layer is considered unusable
	// and OCR takes over.
	minTextRunes int
}

func New(log *logger.Logger, ocrEngine ocr.Engine) *Extractor {
	return &Extractor{
		log:          log.With("service", "Extractor"),
		ocr:          ocrEngine,
		runner:       execRunner{},
		minTextRunes: envutil.Int("EXTRACT_MIN_TEXT_RUNES", 100),
	}
}

func (e *Extractor) Extract(ctx context.Context, mediaType types.MediaType, data []byte) (*Result, error) {
	const op = "extract"
	if err := ctx.Err(); err != nil {
		return nil, errors.External(op, "canceled", false, err)
	}
	if len(data) == 0 {
		return nil, errors.InvalidInput(op, "empty document")
	}

	switch mediaType {
	case types.MediaTypeTXT:
		text := normalizeText(string(data))
		if text == "" {
			return nil, errors.InvalidInput(op, "document contains no extractable text")
		}
		return &Result{Text: text}, nil

	case types.MediaTypeDOCX:
		raw, err := extractDOCX(data)
		if err != nil {
			return nil, err
		}
		text := normalizeText(raw)
		if text == "" {
			return nil, errors.InvalidInput(op, "document contains no extractable text")
		}
		return &Result{Text: text}, nil

	case types.MediaTypePDF:
		return e.extractPDF(ctx, data)

	default:
		return nil, errors.InvalidInput(op, "unsupported media type "+string(mediaType))
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	const op = "extract.pdf"

	layer, layerErr := e.extractPDFTextLayer(ctx, data)
	if layerErr == nil {
		res := assemblePages(layer.pages)
		if utf8.RuneCountInString(res.Text) >= e.minTextRunes {
			return res, nil
		}
		e.log.Info("pdf text layer too thin, falling back to OCR",
			"text_runes", utf8.RuneCountInString(res.Text),
			"min_runes", e.minTextRunes,
		)
	} else {
		e.log.Warn("pdf text layer extraction failed, falling back to OCR", "error", layerErr.Error())
	}

	if e.ocr == nil {
		if layerErr != nil {
			return nil, layerErr
		}
		return nil, errors.InvalidInput(op, "document contains no extractable text and OCR is not configured")
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.External(op, "canceled", false, err)
	}

	ocrRes, err := e.ocr.Recognize(ctx, "application/pdf", data)
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(ocrRes.Pages))
	for _, p := range ocrRes.Pages {
		pages = append(pages, p.Text)
	}
	var res *Result
	if len(pages) > 0 {
		res = assemblePages(pages)
	} else {
		res = &Result{Text: normalizeText(ocrRes.Text)}
	}
	if res.Text == "" {
		return nil, errors.InvalidInput(op, "document contains no extractable text")
	}
	res.OCRUsed = true
	res.OCRProvider = e.ocr.Provider()
	return res, nil
}

// assemblePages normalizes each page, joins them with paragraph breaks
// and records where each page begins in the joined text.
func assemblePages(pages []string) *Result {
	res := &Result{PageCount: len(pages)}

	var b strings.Builder
	offset := 0
	for i, page := range pages {
		text := normalizeText(page)
		if i > 0 {
			b.WriteString("\n\n")
			offset += 2
		}
		res.PageStarts = append(res.PageStarts, offset)
		b.WriteString(text)
		offset += utf8.RuneCountInString(text)
	}
	// Trim the tail only; trimming the head would shift PageStarts.
	res.Text = strings.TrimRight(b.String(), "\n ")
	return res
}
