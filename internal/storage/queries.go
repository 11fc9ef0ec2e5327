package storage

import (
	"context"
	"database/sql"
	"time"
)

// Bill is the database row shape for one consolidated record.
type Bill struct {
	ID             int64
	DocType        string
	DocNumber      string
	IssueDate      string
	Currency       string
	IssuerName     string
	IssuerTaxID    string
	IssuerAddress  sql.NullString
	CustomerName   sql.NullString
	CustomerTaxID  sql.NullString
	SubtotalCents  int64
	TaxCents       sql.NullInt64
	TotalCents     int64
	Description    sql.NullString
	Quantity       sql.NullFloat64
	SourceFilename string
	ExportStatus   string
	ExportedAt     sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Queries bundles the SQL statements used by the repository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type InsertBillParams struct {
	DocType        string
	DocNumber      string
	IssueDate      string
	Currency       string
	IssuerName     string
	IssuerTaxID    string
	IssuerAddress  sql.NullString
	CustomerName   sql.NullString
	CustomerTaxID  sql.NullString
	SubtotalCents  int64
	TaxCents       sql.NullInt64
	TotalCents     int64
	Description    sql.NullString
	Quantity       sql.NullFloat64
	SourceFilename string
}

const insertBill = `
INSERT OR IGNORE INTO bills (
    doc_type, doc_number, issue_date, currency,
    issuer_name, issuer_tax_id, issuer_address,
    customer_name, customer_tax_id,
    subtotal_cents, tax_cents, total_cents,
    description, quantity, source_filename
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertBill inserts a bill unless its source filename is already present.
// Returns the number of rows inserted (0 or 1).
func (q *Queries) InsertBill(ctx context.Context, arg InsertBillParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertBill,
		arg.DocType, arg.DocNumber, arg.IssueDate, arg.Currency,
		arg.IssuerName, arg.IssuerTaxID, arg.IssuerAddress,
		arg.CustomerName, arg.CustomerTaxID,
		arg.SubtotalCents, arg.TaxCents, arg.TotalCents,
		arg.Description, arg.Quantity, arg.SourceFilename,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const billColumns = `
    id, doc_type, doc_number, issue_date, currency,
    issuer_name, issuer_tax_id, issuer_address,
    customer_name, customer_tax_id,
    subtotal_cents, tax_cents, total_cents,
    description, quantity, source_filename,
    export_status, exported_at, created_at, updated_at
`

func scanBill(row interface{ Scan(...any) error }) (Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.DocType, &b.DocNumber, &b.IssueDate, &b.Currency,
		&b.IssuerName, &b.IssuerTaxID, &b.IssuerAddress,
		&b.CustomerName, &b.CustomerTaxID,
		&b.SubtotalCents, &b.TaxCents, &b.TotalCents,
		&b.Description, &b.Quantity, &b.SourceFilename,
		&b.ExportStatus, &b.ExportedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// GetBillBySource fetches a bill by its source filename.
func (q *Queries) GetBillBySource(ctx context.Context, sourceFilename string) (Bill, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE source_filename = ?`, sourceFilename)
	return scanBill(row)
}

// ListBills returns every bill ordered by issue date, then source filename.
func (q *Queries) ListBills(ctx context.Context) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills ORDER BY issue_date, source_filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// CountPendingExport counts bills awaiting export.
func (q *Queries) CountPendingExport(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bills WHERE export_status = 'pending'`).Scan(&n)
	return n, err
}

// CountBills counts all consolidated bills.
func (q *Queries) CountBills(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills`).Scan(&n)
	return n, err
}

// MarkAllExported flags every pending bill as exported.
func (q *Queries) MarkAllExported(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE bills
		 SET export_status = 'exported', exported_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE export_status = 'pending'`)
	return err
}
