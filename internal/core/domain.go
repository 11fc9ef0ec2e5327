package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	Invoice     DocType = "invoice"
	Receipt     DocType = "receipt"
	CreditNote  DocType = "credit_note"
	UtilityBill DocType = "utility_bill"
	Other       DocType = "other"
)

type (
	// DocType classifies the source document.
	DocType string

	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Money holds a monetary amount as integer cents.
	Money struct {
		Cents int64
	}

	// Bill is a single structured record extracted from one scanned document.
	// Field names on the JSON surface match the consolidated CSV columns.
	Bill struct {
		DocType   DocType `json:"doc_type"`
		DocNumber string  `json:"doc_number"`
		IssueDate Date    `json:"issue_date"`
		Currency  string  `json:"currency"`

		IssuerName    string `json:"issuer_name"`
		IssuerTaxID   string `json:"issuer_tax_id"`
		IssuerAddress string `json:"issuer_address,omitempty"`

		CustomerName  string `json:"customer_name,omitempty"`
		CustomerTaxID string `json:"customer_tax_id,omitempty"`

		SubtotalAmount Money  `json:"subtotal_amount"`
		TaxAmount      *Money `json:"tax_amount"`
		TotalAmount    Money  `json:"total_amount"`

		Description string   `json:"description,omitempty"`
		Quantity    *float64 `json:"quantity,omitempty"`

		// SourceFilename is set by the pipeline, never by the extractor.
		SourceFilename string `json:"source_filename,omitempty"`
	}
)

var (
	ErrInvalidDocType  = errors.New("invalid document type")
	ErrEmptyDocNumber  = errors.New("empty document number")
	ErrInvalidDate     = errors.New("invalid issue date")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrEmptyIssuer     = errors.New("empty issuer name")
	ErrEmptyTaxID      = errors.New("empty issuer tax id")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// IsValid returns true if the document type is one of the known values.
func (t DocType) IsValid() bool {
	switch t {
	case Invoice, Receipt, CreditNote, UtilityBill, Other:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t DocType) String() string {
	return string(t)
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date, accepting a full RFC 3339
// timestamp as a fallback for sloppy extractor output.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String formats the date as YYYY-MM-DD. Zero dates render empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts null, YYYY-MM-DD, or an RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// Validate checks the required fields of the data model. Optional fields
// (address, customer, tax, description, quantity) are not constrained.
func (b Bill) Validate() error {
	if !b.DocType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDocType, b.DocType)
	}
	if strings.TrimSpace(b.DocNumber) == "" {
		return ErrEmptyDocNumber
	}
	if err := b.IssueDate.Validate(); err != nil {
		return err
	}
	if !validCurrency(strings.TrimSpace(b.Currency)) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, b.Currency)
	}
	if strings.TrimSpace(b.IssuerName) == "" {
		return ErrEmptyIssuer
	}
	if strings.TrimSpace(b.IssuerTaxID) == "" {
		return ErrEmptyTaxID
	}
	if b.TotalAmount.Cents == 0 {
		return fmt.Errorf("%w: total amount is zero", ErrInvalidAmount)
	}
	return nil
}
