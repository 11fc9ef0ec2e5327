package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	vision "google.golang.org/api/vision/v1"
)

// VisionExtractor converts documents with the Google Cloud Vision
// DOCUMENT_TEXT_DETECTION feature. Credentials come from the ambient
// Google environment (GOOGLE_APPLICATION_CREDENTIALS or ADC).
//
// Vision has no layout model, so the Markdown rendering is the detected
// full text and the layout JSON is the raw annotation response.
type VisionExtractor struct {
	svc *vision.Service
}

var _ TextExtractor = (*VisionExtractor)(nil)

// NewVisionExtractor builds a Cloud Vision backed extractor.
func NewVisionExtractor(ctx context.Context) (*VisionExtractor, error) {
	svc, err := vision.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("vision service: %w", err)
	}
	return &VisionExtractor{svc: svc}, nil
}

// Extract runs document text detection over the image file.
func (e *VisionExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read document: %w", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(content)},
				Features: []*vision.Feature{
					{Type: "DOCUMENT_TEXT_DETECTION"},
				},
			},
		},
	}

	resp, err := e.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return Result{}, fmt.Errorf("vision returned no responses for %s", filepath.Base(path))
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return Result{}, fmt.Errorf("vision annotation error: %s", annotation.Error.Message)
	}
	if annotation.FullTextAnnotation == nil || annotation.FullTextAnnotation.Text == "" {
		return Result{}, fmt.Errorf("vision detected no text in %s", filepath.Base(path))
	}

	layout, err := json.Marshal(annotation)
	if err != nil {
		return Result{}, fmt.Errorf("marshal annotation: %w", err)
	}

	return Result{
		Markdown: annotation.FullTextAnnotation.Text,
		Layout:   layout,
		Pages:    len(annotation.FullTextAnnotation.Pages),
		Duration: time.Since(start),
	}, nil
}
