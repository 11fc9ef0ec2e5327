// Package services orchestrates the document pipeline: layout extraction,
// field extraction, consolidation and CSV export.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"billfold/internal/core"
	"billfold/internal/extract"
)

// FieldParser is stage 2: Markdown -> structured bill.
type FieldParser interface {
	ExtractBill(ctx context.Context, markdown string) (core.Bill, error)
}

// BillStore consolidates bills keyed by source filename.
type BillStore interface {
	Insert(ctx context.Context, b core.Bill) (int64, bool, error)
}

// Publisher announces consolidated bills. May be nil when AMQP is not
// configured; the pipeline then runs in local-only mode.
type Publisher interface {
	PublishBillIndexed(ctx context.Context, id int64, sourceFilename string) error
}

// Options configures a pipeline run.
type Options struct {
	InputDir      string
	LayoutDir     string
	StructuredDir string
	Concurrency   int
}

// Summary reports the outcome of one batch.
type Summary struct {
	Found     int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Pipeline wires the two extraction stages to the consolidated store.
type Pipeline struct {
	extractor extract.TextExtractor
	parser    FieldParser
	store     BillStore
	publisher Publisher
	opts      Options
}

func NewPipeline(extractor extract.TextExtractor, parser FieldParser, store BillStore, publisher Publisher, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		extractor: extractor,
		parser:    parser,
		store:     store,
		publisher: publisher,
		opts:      opts,
	}
}

var documentExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".pdf":  true,
}

// ListDocuments returns the processable files in dir, sorted by name.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if documentExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Run processes up to limit documents from the input directory (0 means
// all). A failing document is logged and skipped; it never aborts the
// batch.
func (p *Pipeline) Run(ctx context.Context, limit int) (Summary, error) {
	start := time.Now()

	docs, err := ListDocuments(p.opts.InputDir)
	if err != nil {
		return Summary{}, err
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	summary := Summary{Found: len(docs)}
	if len(docs) == 0 {
		slog.InfoContext(ctx, "No documents to process", "input_dir", p.opts.InputDir)
		return summary, nil
	}

	for _, dir := range []string{p.opts.LayoutDir, p.opts.StructuredDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return summary, fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	slog.InfoContext(ctx, "Starting batch",
		"count", len(docs),
		"concurrency", p.opts.Concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, path := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			inserted, err := p.processDocument(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				slog.ErrorContext(gctx, "Document failed",
					"source_file", filepath.Base(path),
					"position", fmt.Sprintf("%d/%d", i+1, len(docs)),
					"error", err)
			case inserted:
				summary.Processed++
			default:
				summary.Skipped++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	slog.InfoContext(ctx, "Batch complete",
		"found", summary.Found,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.Duration.Round(time.Millisecond))

	return summary, nil
}

// processDocument runs both extraction stages for one file and stores the
// result. Returns whether a new row was inserted.
func (p *Pipeline) processDocument(ctx context.Context, path string) (bool, error) {
	source := filepath.Base(path)
	stem := strings.TrimSuffix(source, filepath.Ext(source))

	result, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return false, fmt.Errorf("layout extraction: %w", err)
	}

	mdPath := filepath.Join(p.opts.LayoutDir, stem+".md")
	if err := os.WriteFile(mdPath, []byte(result.Markdown), 0644); err != nil {
		return false, fmt.Errorf("save markdown: %w", err)
	}
	if len(result.Layout) > 0 {
		layoutPath := filepath.Join(p.opts.LayoutDir, stem+".json")
		if err := os.WriteFile(layoutPath, result.Layout, 0644); err != nil {
			return false, fmt.Errorf("save layout json: %w", err)
		}
	}

	bill, err := p.parser.ExtractBill(ctx, result.Markdown)
	if err != nil {
		return false, fmt.Errorf("field extraction: %w", err)
	}
	bill.SourceFilename = source

	structured, err := json.MarshalIndent(bill, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal structured bill: %w", err)
	}
	structuredPath := filepath.Join(p.opts.StructuredDir, stem+".json")
	if err := os.WriteFile(structuredPath, structured, 0644); err != nil {
		return false, fmt.Errorf("save structured json: %w", err)
	}

	id, inserted, err := p.store.Insert(ctx, bill)
	if err != nil {
		return false, fmt.Errorf("consolidate bill: %w", err)
	}

	if inserted && p.publisher != nil {
		if err := p.publisher.PublishBillIndexed(ctx, id, source); err != nil {
			// The bill is stored; the periodic worker sweep covers a lost message
			slog.WarnContext(ctx, "Failed to publish indexed message",
				"id", id,
				"source_file", source,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Document processed",
		"source_file", source,
		"doc_number", bill.DocNumber,
		"doc_type", bill.DocType.String(),
		"total_cents", bill.TotalAmount.Cents,
		"inserted", inserted,
		"extract_duration", result.Duration.Round(time.Millisecond))

	return inserted, nil
}
