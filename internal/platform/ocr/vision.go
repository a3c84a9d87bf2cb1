package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/gcputil"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
)

type visionEngine struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	client, err := vision.NewImageAnnotatorClient(context.Background(), gcputil.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionEngine{
		log:    log.With("service", "ocr.Vision"),
		client: client,
	}, nil
}

func (e *visionEngine) Provider() string { return "gcp_vision" }

func (e *visionEngine) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *visionEngine) Recognize(ctx context.Context, mimeType string, data []byte) (*Result, error) {
	const op = "ocr.vision"
	if len(data) == 0 {
		return &Result{Provider: e.Provider()}, nil
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if mimeType == "application/pdf" || mimeType == "image/tiff" {
		return e.recognizeFile(ctx, op, mimeType, data)
	}
	return e.recognizeImage(ctx, op, data)
}

// recognizeFile runs synchronous file annotation, which handles small
// multi-page PDFs without a GCS round trip.
func (e *visionEngine) recognizeFile(ctx context.Context, op, mimeType string, data []byte) (*Result, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: mimeType,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := e.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, errors.External(op, "vision BatchAnnotateFiles failed", true, err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &Result{Provider: e.Provider()}, nil
	}

	out := &Result{Provider: e.Provider()}
	var full strings.Builder
	for _, pageResp := range resp.Responses[0].Responses {
		if pageResp == nil {
			continue
		}
		if pageResp.Error != nil && pageResp.Error.Message != "" {
			return nil, errors.External(op, "vision annotate error: "+pageResp.Error.Message, false, nil)
		}
		fta := pageResp.FullTextAnnotation
		if fta == nil {
			continue
		}
		txt := strings.TrimSpace(fta.Text)
		if txt == "" {
			continue
		}
		pageNum := 0
		if pageResp.Context != nil {
			pageNum = int(pageResp.Context.PageNumber)
		}
		if pageNum <= 0 {
			pageNum = len(out.Pages) + 1
		}
		out.Pages = append(out.Pages, Page{Number: pageNum, Text: txt})
		if full.Len() > 0 {
			full.WriteString("\n\n")
		}
		full.WriteString(txt)
	}
	out.Text = full.String()
	return out, nil
}

func (e *visionEngine) recognizeImage(ctx context.Context, op string, data []byte) (*Result, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, errors.External(op, "vision BatchAnnotateImages failed", true, err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &Result{Provider: e.Provider()}, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, errors.External(op, "vision annotate error: "+r0.Error.Message, false, nil)
	}
	if r0.FullTextAnnotation == nil {
		return &Result{Provider: e.Provider()}, nil
	}

	txt := strings.TrimSpace(r0.FullTextAnnotation.Text)
	out := &Result{Provider: e.Provider(), Text: txt}
	if txt != "" {
		out.Pages = append(out.Pages, Page{Number: 1, Text: txt})
	}
	return out, nil
}
