package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"billfold/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testBill(source string) core.Bill {
	tax := core.Money{Cents: 2200}
	return core.Bill{
		DocType:        core.Invoice,
		DocNumber:      "INV-2024-001",
		IssueDate:      core.NewDate(2024, 3, 15),
		Currency:       "EUR",
		IssuerName:     "ACME Energy S.p.A.",
		IssuerTaxID:    "IT01234567890",
		SubtotalAmount: core.Money{Cents: 10000},
		TaxAmount:      &tax,
		TotalAmount:    core.Money{Cents: 12200},
		Description:    "Electricity supply",
		SourceFilename: source,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, inserted, err := repo.Insert(ctx, testBill("bill_001.jpg"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !inserted {
		t.Fatal("Insert reported duplicate for fresh bill")
	}
	if id == 0 {
		t.Fatal("Insert returned zero id")
	}

	got, err := repo.GetBySource(ctx, "bill_001.jpg")
	if err != nil {
		t.Fatalf("GetBySource: %v", err)
	}
	if got.DocNumber != "INV-2024-001" {
		t.Errorf("doc number = %q, want INV-2024-001", got.DocNumber)
	}
	if got.IssueDate.String() != "2024-03-15" {
		t.Errorf("issue date = %s, want 2024-03-15", got.IssueDate)
	}
	if got.TaxAmount == nil || got.TaxAmount.Cents != 2200 {
		t.Errorf("tax = %v, want 2200 cents", got.TaxAmount)
	}
	if got.Quantity != nil {
		t.Errorf("quantity = %v, want nil", got.Quantity)
	}
}

func TestInsertDedupBySource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, inserted, err := repo.Insert(ctx, testBill("bill_001.jpg"))
	if err != nil || !inserted {
		t.Fatalf("first insert: id=%d inserted=%v err=%v", first, inserted, err)
	}

	dup := testBill("bill_001.jpg")
	dup.DocNumber = "INV-2024-999"
	second, inserted, err := repo.Insert(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Error("duplicate insert reported as new")
	}
	if second != first {
		t.Errorf("duplicate insert id = %d, want existing %d", second, first)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// Original row wins
	got, err := repo.GetBySource(ctx, "bill_001.jpg")
	if err != nil {
		t.Fatalf("GetBySource: %v", err)
	}
	if got.DocNumber != "INV-2024-001" {
		t.Errorf("doc number = %q, want original INV-2024-001", got.DocNumber)
	}
}

func TestInsertRequiresSource(t *testing.T) {
	repo := newTestRepo(t)

	b := testBill("")
	if _, _, err := repo.Insert(context.Background(), b); err == nil {
		t.Fatal("Insert without source filename succeeded, want error")
	}
}

func TestGetBySourceNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetBySource(context.Background(), "missing.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBySource error = %v, want ErrNotFound", err)
	}
}

func TestListOrderedByIssueDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	later := testBill("b.jpg")
	later.IssueDate = core.NewDate(2024, 5, 1)
	earlier := testBill("a.jpg")
	earlier.IssueDate = core.NewDate(2024, 1, 10)

	for _, b := range []core.Bill{later, earlier} {
		if _, _, err := repo.Insert(ctx, b); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	bills, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("len = %d, want 2", len(bills))
	}
	if bills[0].SourceFilename != "a.jpg" || bills[1].SourceFilename != "b.jpg" {
		t.Errorf("order = [%s %s], want [a.jpg b.jpg]", bills[0].SourceFilename, bills[1].SourceFilename)
	}
}

func TestExportBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, source := range []string{"a.jpg", "b.jpg"} {
		if _, _, err := repo.Insert(ctx, testBill(source)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	pending, err := repo.PendingExportCount(ctx)
	if err != nil {
		t.Fatalf("PendingExportCount: %v", err)
	}
	if pending != 2 {
		t.Errorf("pending = %d, want 2", pending)
	}

	if err := repo.MarkAllExported(ctx); err != nil {
		t.Fatalf("MarkAllExported: %v", err)
	}

	pending, err = repo.PendingExportCount(ctx)
	if err != nil {
		t.Fatalf("PendingExportCount: %v", err)
	}
	if pending != 0 {
		t.Errorf("pending after export = %d, want 0", pending)
	}
}
