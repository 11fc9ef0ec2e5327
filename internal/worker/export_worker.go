// Package worker keeps the CSV export artifact in sync with the store.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"billfold/internal/amqp"
	"billfold/internal/log"
)

// ExportStore is the bookkeeping side of the consolidated store.
type ExportStore interface {
	PendingExportCount(ctx context.Context) (int64, error)
	MarkAllExported(ctx context.Context) error
}

// CSVExporter regenerates the consolidated CSV from the store.
type CSVExporter interface {
	Export(ctx context.Context, path string) (int, error)
}

// ExportWorker regenerates the CSV whenever bills are indexed. The
// periodic sweep is a backup mechanism in case AMQP messages are lost.
type ExportWorker struct {
	store    ExportStore
	exporter CSVExporter
	csvPath  string
}

func NewExportWorker(store ExportStore, exporter CSVExporter, csvPath string) *ExportWorker {
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		csvPath:  csvPath,
	}
}

// HandleBillIndexed processes a single bill-indexed message from AMQP.
func (w *ExportWorker) HandleBillIndexed(ctx context.Context, msg *amqp.BillIndexedMessage) error {
	slog.InfoContext(ctx, "Processing bill indexed message",
		"id", msg.ID,
		log.FieldSourceFile, msg.SourceFilename,
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpExport)

	if err := w.export(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Export refreshed",
		"id", msg.ID,
		"csv_path", w.csvPath)

	return nil
}

// ProcessPendingExports re-exports when any bill is still marked pending.
// Used at startup and on the periodic sweep.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.store.PendingExportCount(ctx)
	if err != nil {
		return fmt.Errorf("count pending exports: %w", err)
	}

	if pending == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", log.FieldCount, pending)
	return w.export(ctx)
}

func (w *ExportWorker) export(ctx context.Context) error {
	rows, err := w.exporter.Export(ctx, w.csvPath)
	if err != nil {
		return fmt.Errorf("export CSV: %w", err)
	}

	if err := w.store.MarkAllExported(ctx); err != nil {
		return fmt.Errorf("mark bills exported: %w", err)
	}

	slog.InfoContext(ctx, "CSV regenerated",
		"rows", rows,
		"csv_path", w.csvPath)

	return nil
}
