package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"billfold/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no bill.
var ErrNotFound = errors.New("bill not found")

// SQLiteRepository is the canonical consolidated store. The CSV file is an
// export artifact regenerated from here.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert stores a bill keyed by source filename. Returns the row ID and
// false when the source was already consolidated (the insert is skipped).
func (r *SQLiteRepository) Insert(ctx context.Context, b core.Bill) (int64, bool, error) {
	if b.SourceFilename == "" {
		return 0, false, fmt.Errorf("bill has no source filename")
	}

	affected, err := r.queries.InsertBill(ctx, toInsertParams(b))
	if err != nil {
		return 0, false, fmt.Errorf("insert bill: %w", err)
	}

	stored, err := r.queries.GetBillBySource(ctx, b.SourceFilename)
	if err != nil {
		return 0, false, fmt.Errorf("read back bill: %w", err)
	}

	if affected == 0 {
		slog.InfoContext(ctx, "Bill already consolidated, skipping",
			"source_file", b.SourceFilename,
			"id", stored.ID)
		return stored.ID, false, nil
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", stored.ID,
		"source_file", stored.SourceFilename,
		"doc_number", stored.DocNumber,
		"total_cents", stored.TotalCents)

	return stored.ID, true, nil
}

// GetBySource fetches one consolidated bill by source filename.
func (r *SQLiteRepository) GetBySource(ctx context.Context, sourceFilename string) (core.Bill, error) {
	row, err := r.queries.GetBillBySource(ctx, sourceFilename)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill by source: %w", err)
	}
	return fromRow(row)
}

// List returns every consolidated bill ordered by issue date.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.queries.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	bills := make([]core.Bill, 0, len(rows))
	for _, row := range rows {
		b, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode bill %d: %w", row.ID, err)
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// PendingExportCount reports how many bills still await a CSV export.
func (r *SQLiteRepository) PendingExportCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPendingExport(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending export: %w", err)
	}
	return n, nil
}

// Count reports the number of consolidated bills.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("count bills: %w", err)
	}
	return n, nil
}

// MarkAllExported flags every pending bill as covered by the current CSV.
func (r *SQLiteRepository) MarkAllExported(ctx context.Context) error {
	if err := r.queries.MarkAllExported(ctx); err != nil {
		return fmt.Errorf("mark bills exported: %w", err)
	}
	return nil
}

func toInsertParams(b core.Bill) InsertBillParams {
	params := InsertBillParams{
		DocType:        b.DocType.String(),
		DocNumber:      b.DocNumber,
		IssueDate:      b.IssueDate.String(),
		Currency:       b.Currency,
		IssuerName:     b.IssuerName,
		IssuerTaxID:    b.IssuerTaxID,
		SubtotalCents:  b.SubtotalAmount.Cents,
		TotalCents:     b.TotalAmount.Cents,
		SourceFilename: b.SourceFilename,
	}
	params.IssuerAddress = nullString(b.IssuerAddress)
	params.CustomerName = nullString(b.CustomerName)
	params.CustomerTaxID = nullString(b.CustomerTaxID)
	params.Description = nullString(b.Description)
	if b.TaxAmount != nil {
		params.TaxCents = sql.NullInt64{Int64: b.TaxAmount.Cents, Valid: true}
	}
	if b.Quantity != nil {
		params.Quantity = sql.NullFloat64{Float64: *b.Quantity, Valid: true}
	}
	return params
}

func fromRow(row Bill) (core.Bill, error) {
	issueDate, err := core.ParseDate(row.IssueDate)
	if err != nil {
		return core.Bill{}, err
	}

	b := core.Bill{
		DocType:        core.DocType(row.DocType),
		DocNumber:      row.DocNumber,
		IssueDate:      issueDate,
		Currency:       row.Currency,
		IssuerName:     row.IssuerName,
		IssuerTaxID:    row.IssuerTaxID,
		IssuerAddress:  row.IssuerAddress.String,
		CustomerName:   row.CustomerName.String,
		CustomerTaxID:  row.CustomerTaxID.String,
		SubtotalAmount: core.Money{Cents: row.SubtotalCents},
		TotalAmount:    core.Money{Cents: row.TotalCents},
		Description:    row.Description.String,
		SourceFilename: row.SourceFilename,
	}
	if row.TaxCents.Valid {
		b.TaxAmount = &core.Money{Cents: row.TaxCents.Int64}
	}
	if row.Quantity.Valid {
		q := row.Quantity.Float64
		b.Quantity = &q
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
