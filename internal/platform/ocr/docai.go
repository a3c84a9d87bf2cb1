package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/gcputil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type docaiEngine struct {
	log    *logger.Logger
	client *documentai.DocumentProcessorClient

	projectID   string
	location    string
	processorID string
	version     string
}

// NewDocumentAI builds an engine backed by a Document AI OCR processor.
// The processor endpoint is regional, derived from DOCUMENTAI_LOCATION.
func NewDocumentAI(log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	projectID := strings.TrimSpace(envutil.Str("GCP_PROJECT_ID", ""))
	processorID := strings.TrimSpace(envutil.Str("DOCUMENTAI_PROCESSOR_ID", ""))
	if projectID == "" || processorID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID are required for documentai OCR")
	}
	location := strings.TrimSpace(envutil.Str("DOCUMENTAI_LOCATION", "us"))

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, gcputil.ClientOptionsFromEnv()...)
	client, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog := log.With("service", "ocr.DocumentAI")
	slog.Info("Document AI OCR initialized", "endpoint", endpoint)

	return &docaiEngine{
		log:         slog,
		client:      client,
		projectID:   projectID,
		location:    location,
		processorID: processorID,
		version:     strings.TrimSpace(envutil.Str("DOCUMENTAI_PROCESSOR_VERSION", "")),
	}, nil
}

func (e *docaiEngine) Provider() string { return "gcp_documentai" }

func (e *docaiEngine) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *docaiEngine) Recognize(ctx context.Context, mimeType string, data []byte) (*Result, error) {
	const op = "ocr.docai"
	if len(data) == 0 {
		return &Result{Provider: e.Provider()}, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, errors.External(op, "documentai ProcessDocument failed", true, err)
	}
	if resp == nil || resp.Document == nil {
		return &Result{Provider: e.Provider()}, nil
	}

	doc := resp.Document
	out := &Result{
		Provider: e.Provider(),
		Text:     strings.TrimSpace(doc.Text),
	}

	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		var pageText strings.Builder
		for _, para := range p.Paragraphs {
			if para == nil || para.Layout == nil || para.Layout.TextAnchor == nil {
				continue
			}
			t := strings.TrimSpace(textFromAnchor(doc.Text, para.Layout.TextAnchor))
			if t == "" {
				continue
			}
			pageText.WriteString(t)
			pageText.WriteString("\n")
		}
		pt := strings.TrimSpace(pageText.String())
		if pt == "" {
			continue
		}
		out.Pages = append(out.Pages, Page{Number: int(p.PageNumber), Text: pt})
	}

	// Some processor versions fill doc.Text but skip page paragraphs.
	if len(out.Pages) == 0 && out.Text != "" {
		out.Pages = append(out.Pages, Page{Number: 1, Text: out.Text})
	}
	return out, nil
}

func (e *docaiEngine) processorName() string {
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", e.projectID, e.location, e.processorID)
	if e.version != "" {
		return base + "/processorVersions/" + e.version
	}
	return base
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}
