// Package ocr recognizes text in scanned documents. Engines back the
// extraction fallback for PDFs whose embedded text layer is missing or
// too thin to be usable.
package ocr

import "context"

type Page struct {
	Number int
	Text   string
}

type Result struct {
	Provider string
	Text     string
	Pages    []Page
}

type Engine interface {
	Recognize(ctx context.Context, mimeType string, data []byte) (*Result, error)
	Provider() string
	Close() error
}
