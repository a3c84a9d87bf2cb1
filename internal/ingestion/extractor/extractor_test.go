package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"os/exec"
	"testing"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/platform/ocr"
)

type fakeOCR struct {
	result *ocr.Result
	err    error
	calls  int
}

func (f *fakeOCR) Recognize(ctx context.Context, mimeType string, data []byte) (*ocr.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeOCR) Provider() string { return "fake_ocr" }
func (f *fakeOCR) Close() error     { return nil }

type fakeRunner struct {
	output []byte
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.output, f.err
}

func newExtractor(t *testing.T, engine ocr.Engine) *Extractor {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log, engine)
}

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTXT(t *testing.T) {
	e := newExtractor(t, nil)
	res, err := e.Extract(context.Background(), types.MediaTypeTXT, []byte("Hello   world\r\n\r\n\r\nSecond  paragraph\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Hello world\n\nSecond paragraph"
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if res.OCRUsed {
		t.Fatal("txt extraction must not use OCR")
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := newExtractor(t, nil)
	_, err := e.Extract(context.Background(), types.MediaTypeTXT, nil)
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	_, err = e.Extract(context.Background(), types.MediaTypeTXT, []byte("   \n\n  "))
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("expected invalid_input for whitespace-only doc, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>Term of Agreement.</t></r><r><t> Five years.</t></r></p>
    <p><r><t>Payment due in 30 days.</t></r></p>
  </body>
</document>`
	e := newExtractor(t, nil)
	res, err := e.Extract(context.Background(), types.MediaTypeDOCX, docxBytes(t, doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Term of Agreement. Five years.\nPayment due in 30 days."
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
}

func TestExtractDOCXNotAnArchive(t *testing.T) {
	e := newExtractor(t, nil)
	_, err := e.Extract(context.Background(), types.MediaTypeDOCX, []byte("plain text, not a zip"))
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := newExtractor(t, nil)
	_, err := e.Extract(context.Background(), types.MediaType("xlsx"), []byte("data"))
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	if _, err := exec.LookPath(pdfToTextBinary); err != nil {
		t.Skip("pdftotext not in PATH")
	}
	e := newExtractor(t, nil)
	e.runner = &fakeRunner{output: []byte("Page one text with enough characters to pass the minimum threshold for a usable embedded layer, clauses and terms.\fPage two text continues the contract body here.\f")}

	res, err := e.Extract(context.Background(), types.MediaTypePDF, []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.OCRUsed {
		t.Fatal("text layer was usable, OCR must not run")
	}
	if res.PageCount != 2 {
		t.Fatalf("page count = %d, want 2", res.PageCount)
	}
	if p := res.PageForOffset(0); p == nil || *p != 1 {
		t.Fatalf("offset 0 page = %v, want 1", p)
	}
	last := len([]rune(res.Text)) - 1
	if p := res.PageForOffset(last); p == nil || *p != 2 {
		t.Fatalf("offset %d page = %v, want 2", last, p)
	}
}

func TestExtractPDFFallsBackToOCRWhenThin(t *testing.T) {
	if _, err := exec.LookPath(pdfToTextBinary); err != nil {
		t.Skip("pdftotext not in PATH")
	}
	engine := &fakeOCR{result: &ocr.Result{
		Provider: "fake_ocr",
		Pages: []ocr.Page{
			{Number: 1, Text: "Scanned page one."},
			{Number: 2, Text: "Scanned page two."},
		},
	}}
	e := newExtractor(t, engine)
	e.runner = &fakeRunner{output: []byte("x\f")}

	res, err := e.Extract(context.Background(), types.MediaTypePDF, []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.OCRUsed {
		t.Fatal("expected OCR fallback")
	}
	if res.OCRProvider != "fake_ocr" {
		t.Fatalf("ocr provider = %q", res.OCRProvider)
	}
	if engine.calls != 1 {
		t.Fatalf("ocr called %d times, want 1", engine.calls)
	}
	if res.PageCount != 2 {
		t.Fatalf("page count = %d, want 2", res.PageCount)
	}
}

func TestExtractPDFNoOCRConfigured(t *testing.T) {
	if _, err := exec.LookPath(pdfToTextBinary); err != nil {
		t.Skip("pdftotext not in PATH")
	}
	e := newExtractor(t, nil)
	e.runner = &fakeRunner{output: []byte("x\f")}

	_, err := e.Extract(context.Background(), types.MediaTypePDF, []byte("%PDF-1.4 fake"))
	if err == nil {
		t.Fatal("expected error when text layer is thin and OCR is absent")
	}
}

func TestAssemblePagesOffsets(t *testing.T) {
	res := assemblePages([]string{"alpha", "beta", "gamma"})
	if res.PageCount != 3 {
		t.Fatalf("page count = %d", res.PageCount)
	}
	if res.Text != "alpha\n\nbeta\n\ngamma" {
		t.Fatalf("text = %q", res.Text)
	}
	for offset, wantPage := range map[int]int{0: 1, 4: 1, 7: 2, 14: 3} {
		if p := res.PageForOffset(offset); p == nil || *p != wantPage {
			t.Fatalf("offset %d page = %v, want %d", offset, p, wantPage)
		}
	}
}

func TestNormalizeTextInvalidUTF8(t *testing.T) {
	got := normalizeText(string([]byte{0x48, 0x69, 0xff, 0xfe}))
	if got == "" {
		t.Fatal("expected replacement text, got empty")
	}
	for _, r := range got {
		if r == 0xFFFD {
			return
		}
	}
	t.Fatalf("expected replacement rune in %q", got)
}
