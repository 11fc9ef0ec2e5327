// Package exporter renders the consolidated store as a CSV file, one row
// per line item, with the column order fixed by the data-model definition.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"billfold/assets"
	"billfold/internal/core"
)

// BillLister is the slice of the repository the exporter needs.
type BillLister interface {
	List(ctx context.Context) ([]core.Bill, error)
}

// ColumnOrder reads the data-model CSV and extracts the Field column, in
// order. The consolidated CSV header must match it exactly.
func ColumnOrder(modelFS fs.FS, path string) ([]string, error) {
	f, err := modelFS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data model: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read data model header: %w", err)
	}

	fieldIdx := -1
	for i, name := range header {
		if name == "Field" {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, fmt.Errorf("data model has no Field column")
	}

	var columns []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read data model row: %w", err)
		}
		if field := strings.TrimSpace(record[fieldIdx]); field != "" {
			columns = append(columns, field)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("data model defines no fields")
	}
	return columns, nil
}

// DefaultColumns returns the column order from the embedded data model.
func DefaultColumns() ([]string, error) {
	return ColumnOrder(assets.ModelFS, assets.DataModelPath)
}

// CSVExporter writes the consolidated CSV from the bill store.
type CSVExporter struct {
	store   BillLister
	columns []string
}

// New builds a CSV exporter using the embedded data-model column order.
func New(store BillLister) (*CSVExporter, error) {
	columns, err := DefaultColumns()
	if err != nil {
		return nil, err
	}
	return &CSVExporter{store: store, columns: columns}, nil
}

// Columns returns the header the exporter writes.
func (e *CSVExporter) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Export regenerates the CSV at path from the store. The write is atomic:
// a temp file in the same directory is renamed over the target, so readers
// never observe a half-written table. Returns the number of rows written.
func (e *CSVExporter) Export(ctx context.Context, path string) (int, error) {
	bills, err := e.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load bills: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(e.columns); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, b := range bills {
		if err := w.Write(e.row(b)); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("write row for %s: %w", b.SourceFilename, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replace csv: %w", err)
	}

	slog.InfoContext(ctx, "Exported consolidated CSV",
		"path", path,
		"rows", len(bills))

	return len(bills), nil
}

func (e *CSVExporter) row(b core.Bill) []string {
	values := map[string]string{
		"doc_type":        b.DocType.String(),
		"doc_number":      b.DocNumber,
		"issue_date":      b.IssueDate.String(),
		"currency":        b.Currency,
		"issuer_name":     b.IssuerName,
		"issuer_tax_id":   b.IssuerTaxID,
		"issuer_address":  b.IssuerAddress,
		"customer_name":   b.CustomerName,
		"customer_tax_id": b.CustomerTaxID,
		"subtotal_amount": b.SubtotalAmount.Decimal(),
		"total_amount":    b.TotalAmount.Decimal(),
		"description":     b.Description,
		"source_filename": b.SourceFilename,
	}
	if b.TaxAmount != nil {
		values["tax_amount"] = b.TaxAmount.Decimal()
	}
	if b.Quantity != nil {
		values["quantity"] = strconv.FormatFloat(*b.Quantity, 'f', -1, 64)
	}

	record := make([]string, len(e.columns))
	for i, col := range e.columns {
		record[i] = values[col]
	}
	return record
}
