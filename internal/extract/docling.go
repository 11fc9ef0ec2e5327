package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DoclingConfig configures the docling-serve conversion endpoint and HTTP behavior.
type DoclingConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// DoclingExtractor converts documents through a docling-serve instance.
type DoclingExtractor struct {
	cfg DoclingConfig
}

var _ TextExtractor = (*DoclingExtractor)(nil)

// NewDoclingExtractor builds a docling-serve backed extractor.
func NewDoclingExtractor(cfg DoclingConfig) *DoclingExtractor {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &DoclingExtractor{cfg: cfg}
}

type doclingDocument struct {
	Filename    string          `json:"filename"`
	MDContent   string          `json:"md_content"`
	JSONContent json.RawMessage `json:"json_content"`
}

type doclingResponse struct {
	Document       doclingDocument `json:"document"`
	Status         string          `json:"status"`
	Errors         []string        `json:"errors"`
	ProcessingTime float64         `json:"processing_time"`
}

// Extract uploads the file to the conversion endpoint and returns the
// Markdown and layout JSON renderings.
func (e *DoclingExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("copy document into request: %w", err)
	}
	for _, format := range []string{"md", "json"} {
		if err := mw.WriteField("to_formats", format); err != nil {
			return Result{}, fmt.Errorf("write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/v1alpha/convert/file", &body)
	if err != nil {
		return Result{}, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call docling: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("docling returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var converted doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&converted); err != nil {
		return Result{}, fmt.Errorf("decode docling response: %w", err)
	}

	if converted.Status != "success" && converted.Status != "partial_success" {
		return Result{}, fmt.Errorf("docling conversion failed: status %q, errors %v", converted.Status, converted.Errors)
	}
	if strings.TrimSpace(converted.Document.MDContent) == "" {
		return Result{}, fmt.Errorf("docling conversion produced no text for %s", filepath.Base(path))
	}

	slog.DebugContext(ctx, "Docling conversion complete",
		"file", filepath.Base(path),
		"status", converted.Status,
		"processing_time", converted.ProcessingTime)

	return Result{
		Markdown: converted.Document.MDContent,
		Layout:   converted.Document.JSONContent,
		Duration: time.Since(start),
		Warnings: converted.Errors,
	}, nil
}
