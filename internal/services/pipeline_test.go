package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"billfold/internal/core"
	"billfold/internal/extract"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (extract.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(path))
	f.mu.Unlock()

	if f.fail[filepath.Base(path)] {
		return extract.Result{}, errors.New("conversion failed")
	}
	return extract.Result{
		Markdown: "# " + filepath.Base(path),
		Layout:   json.RawMessage(`{"pages":[]}`),
	}, nil
}

type fakeParser struct {
	fail map[string]bool
}

func (f *fakeParser) ExtractBill(ctx context.Context, markdown string) (core.Bill, error) {
	if f.fail[markdown] {
		return core.Bill{}, errors.New("model refused")
	}
	return core.Bill{
		DocType:        core.Invoice,
		DocNumber:      "INV-" + markdown[2:],
		IssueDate:      mustDate("2024-05-01"),
		Currency:       "EUR",
		IssuerName:     "ACME",
		IssuerTaxID:    "IT123",
		SubtotalAmount: core.Money{Cents: 10000},
		TotalAmount:    core.Money{Cents: 12200},
	}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	seen  map[string]int64
	bills []core.Bill
	fail  bool
}

func (f *fakeStore) Insert(ctx context.Context, b core.Bill) (int64, bool, error) {
	if f.fail {
		return 0, false, errors.New("db locked")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]int64)
	}
	if id, ok := f.seen[b.SourceFilename]; ok {
		return id, false, nil
	}
	id := int64(len(f.seen) + 1)
	f.seen[b.SourceFilename] = id
	f.bills = append(f.bills, b)
	return id, true, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
}

func (f *fakePublisher) PublishBillIndexed(ctx context.Context, id int64, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, source)
	return nil
}

func mustDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func writeInputFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestPipeline(t *testing.T, inputDir string, extractor *fakeExtractor, parser *fakeParser, store *fakeStore, pub Publisher) (*Pipeline, Options) {
	t.Helper()
	opts := Options{
		InputDir:      inputDir,
		LayoutDir:     filepath.Join(t.TempDir(), "layout"),
		StructuredDir: filepath.Join(t.TempDir(), "structured"),
		Concurrency:   2,
	}
	return NewPipeline(extractor, parser, store, pub, opts), opts
}

func TestListDocuments(t *testing.T) {
	dir := writeInputFiles(t, "b.jpg", "a.png", "c.pdf", "notes.txt", "scan.JPEG")
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	docs, err := ListDocuments(dir)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}

	var names []string
	for _, d := range docs {
		names = append(names, filepath.Base(d))
	}
	want := []string{"a.png", "b.jpg", "c.pdf", "scan.JPEG"}
	if len(names) != len(want) {
		t.Fatalf("docs = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("docs[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPipelineRun(t *testing.T) {
	dir := writeInputFiles(t, "bill_001.jpg", "bill_002.png")
	extractor := &fakeExtractor{}
	store := &fakeStore{}
	pub := &fakePublisher{}
	p, opts := newTestPipeline(t, dir, extractor, &fakeParser{}, store, pub)

	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Found != 2 || summary.Processed != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v", summary)
	}

	for _, stem := range []string{"bill_001", "bill_002"} {
		if _, err := os.Stat(filepath.Join(opts.LayoutDir, stem+".md")); err != nil {
			t.Errorf("missing markdown for %s: %v", stem, err)
		}
		if _, err := os.Stat(filepath.Join(opts.LayoutDir, stem+".json")); err != nil {
			t.Errorf("missing layout json for %s: %v", stem, err)
		}

		data, err := os.ReadFile(filepath.Join(opts.StructuredDir, stem+".json"))
		if err != nil {
			t.Fatalf("read structured json for %s: %v", stem, err)
		}
		var bill core.Bill
		if err := json.Unmarshal(data, &bill); err != nil {
			t.Fatalf("unmarshal structured json: %v", err)
		}
		if bill.SourceFilename == "" {
			t.Errorf("structured bill for %s has empty source_filename", stem)
		}
	}

	if len(pub.published) != 2 {
		t.Errorf("published = %v, want 2 messages", pub.published)
	}
}

func TestPipelineRunLimit(t *testing.T) {
	dir := writeInputFiles(t, "a.jpg", "b.jpg", "c.jpg")
	extractor := &fakeExtractor{}
	p, _ := newTestPipeline(t, dir, extractor, &fakeParser{}, &fakeStore{}, nil)

	summary, err := p.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Found != 2 || summary.Processed != 2 {
		t.Errorf("summary = %+v, want 2 found / 2 processed", summary)
	}
	if len(extractor.calls) != 2 {
		t.Errorf("extractor calls = %v, want 2", extractor.calls)
	}
}

func TestPipelineRunIsolatesFailures(t *testing.T) {
	dir := writeInputFiles(t, "a.jpg", "b.jpg", "c.jpg")
	extractor := &fakeExtractor{fail: map[string]bool{"b.jpg": true}}
	parser := &fakeParser{fail: map[string]bool{"# c.jpg": true}}
	store := &fakeStore{}
	p, _ := newTestPipeline(t, dir, extractor, parser, store, nil)

	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Found != 3 || summary.Processed != 1 || summary.Failed != 2 {
		t.Errorf("summary = %+v, want 1 processed / 2 failed", summary)
	}
	if len(store.bills) != 1 || store.bills[0].SourceFilename != "a.jpg" {
		t.Errorf("stored bills = %+v, want only a.jpg", store.bills)
	}
}

func TestPipelineRunSkipsDuplicates(t *testing.T) {
	dir := writeInputFiles(t, "a.jpg", "b.jpg")
	store := &fakeStore{}
	pub := &fakePublisher{}
	p, _ := newTestPipeline(t, dir, &fakeExtractor{}, &fakeParser{}, store, pub)

	if _, err := p.Run(context.Background(), 0); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 2 {
		t.Errorf("second run summary = %+v, want 0 processed / 2 skipped", summary)
	}
	// Duplicates are not re-announced
	if len(pub.published) != 2 {
		t.Errorf("published = %v, want 2 messages total", pub.published)
	}
}

func TestPipelineRunEmptyDir(t *testing.T) {
	p, opts := newTestPipeline(t, t.TempDir(), &fakeExtractor{}, &fakeParser{}, &fakeStore{}, nil)

	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Found != 0 {
		t.Errorf("summary = %+v, want nothing found", summary)
	}
	if _, err := os.Stat(opts.LayoutDir); !os.IsNotExist(err) {
		t.Error("layout dir created for empty batch")
	}
}

func TestPipelineRunStoreError(t *testing.T) {
	dir := writeInputFiles(t, "a.jpg")
	p, _ := newTestPipeline(t, dir, &fakeExtractor{}, &fakeParser{}, &fakeStore{fail: true}, nil)

	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestPipelineRunManyConcurrent(t *testing.T) {
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, fmt.Sprintf("bill_%03d.jpg", i))
	}
	dir := writeInputFiles(t, names...)
	store := &fakeStore{}
	p, _ := newTestPipeline(t, dir, &fakeExtractor{}, &fakeParser{}, store, nil)

	summary, err := p.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 20 {
		t.Errorf("processed = %d, want 20", summary.Processed)
	}
	if len(store.bills) != 20 {
		t.Errorf("stored = %d, want 20", len(store.bills))
	}
}
