package extractor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
)

// CommandRunner runs an external tool and returns its stdout. Seam for
// tests; production uses execRunner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

const pdfToTextBinary = "pdftotext"

// pdfPages holds a page-split text layer extraction. pdftotext separates
// pages with form feeds.
type pdfPages struct {
	pages []string
}

func (e *Extractor) extractPDFTextLayer(ctx context.Context, data []byte) (*pdfPages, error) {
	const op = "extract.pdf"
	if _, err := exec.LookPath(pdfToTextBinary); err != nil {
		return nil, errors.External(op, "pdftotext not installed", false, err)
	}

	tmp, err := os.CreateTemp("", "contract-*.pdf")
	if err != nil {
		return nil, errors.External(op, "create temp file failed", false, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, errors.External(op, "write temp file failed", false, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.External(op, "close temp file failed", false, err)
	}

	// -layout keeps tables readable; "-" writes to stdout.
	out, err := e.runner.Run(ctx, pdfToTextBinary, "-layout", "-enc", "UTF-8", filepath.Clean(tmpPath), "-")
	if err != nil {
		return nil, errors.External(op, "pdftotext failed", false, err)
	}

	// Keep blank pages so page numbers stay aligned; only the trailing
	// empty element after the final form feed is dropped.
	pages := strings.Split(string(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return &pdfPages{pages: pages}, nil
}
