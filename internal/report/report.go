// Package report renders a human-readable spending report from the
// consolidated CSV: summary statistics, a Markdown document and a monthly
// spend line plot.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one cleaned line item loaded from the consolidated CSV.
type Row struct {
	DocNumber  string
	IssuerName string
	IssueDate  time.Time
	Currency   string
	Total      float64
}

// MonthTotal is the aggregated spend for one calendar month.
type MonthTotal struct {
	Month string // YYYY-MM
	Total float64
}

// VendorTotal is the aggregated spend for one issuer.
type VendorTotal struct {
	IssuerName string
	Total      float64
}

// BillRef identifies one of the largest bills in the period.
type BillRef struct {
	DocNumber  string
	IssuerName string
	IssueDate  string
	Total      float64
}

// Stats holds the high-level numbers for the report.
type Stats struct {
	HasData             bool
	Currency            string
	Currencies          []string
	MultiCurrency       bool
	StartDate           string
	EndDate             string
	TotalSpend          float64
	AverageMonthlySpend float64
	MaxMonth            *MonthTotal
	MinMonth            *MonthTotal
	TopVendors          []VendorTotal
	BiggestBills        []BillRef
}

// LoadCSV loads and cleans the consolidated CSV. Rows with unparseable
// dates or amounts are dropped, matching the tolerance of the report: a
// dirty row should never block the whole document. A missing file yields
// an empty dataset, not an error.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		slog.Warn("Consolidated CSV not found", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"issue_date", "total_amount"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []Row
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		date, err := time.Parse("2006-01-02", field(record, "issue_date"))
		if err != nil {
			dropped++
			continue
		}
		total, err := strconv.ParseFloat(field(record, "total_amount"), 64)
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, Row{
			DocNumber:  field(record, "doc_number"),
			IssuerName: field(record, "issuer_name"),
			IssueDate:  date,
			Currency:   field(record, "currency"),
			Total:      total,
		})
	}

	if dropped > 0 {
		slog.Warn("Dropped rows with invalid date or amount", "count", dropped, "path", path)
	}
	return rows, nil
}

// FilterCurrency restricts the dataset to a single currency when several
// are present, picking the most common one (lexicographic tie-break).
// Returns the filtered rows, the selected currency, all currencies seen,
// and whether the dataset mixed currencies.
func FilterCurrency(rows []Row) ([]Row, string, []string, bool) {
	if len(rows) == 0 {
		return rows, "", nil, false
	}

	counts := make(map[string]int)
	for _, r := range rows {
		if r.Currency != "" {
			counts[r.Currency]++
		}
	}
	if len(counts) == 0 {
		return rows, "", nil, false
	}

	currencies := make([]string, 0, len(counts))
	for c := range counts {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	if len(currencies) == 1 {
		return rows, currencies[0], currencies, false
	}

	main := currencies[0]
	for _, c := range currencies[1:] {
		if counts[c] > counts[main] {
			main = c
		}
	}

	filtered := make([]Row, 0, counts[main])
	for _, r := range rows {
		if r.Currency == main {
			filtered = append(filtered, r)
		}
	}
	return filtered, main, currencies, true
}

// MonthlySpend aggregates total spend per calendar month, sorted by month.
func MonthlySpend(rows []Row) []MonthTotal {
	if len(rows) == 0 {
		return nil
	}

	totals := make(map[string]float64)
	for _, r := range rows {
		totals[r.IssueDate.Format("2006-01")] += r.Total
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	monthly := make([]MonthTotal, len(months))
	for i, m := range months {
		monthly[i] = MonthTotal{Month: m, Total: totals[m]}
	}
	return monthly
}

// ComputeStats derives the report numbers from the cleaned dataset.
func ComputeStats(rows []Row) Stats {
	stats := Stats{HasData: len(rows) > 0}
	if !stats.HasData {
		return stats
	}

	filtered, currency, currencies, multi := FilterCurrency(rows)
	stats.Currency = currency
	stats.Currencies = currencies
	stats.MultiCurrency = multi

	if len(filtered) == 0 {
		stats.HasData = false
		return stats
	}

	start, end := filtered[0].IssueDate, filtered[0].IssueDate
	total := 0.0
	for _, r := range filtered {
		if r.IssueDate.Before(start) {
			start = r.IssueDate
		}
		if r.IssueDate.After(end) {
			end = r.IssueDate
		}
		total += r.Total
	}
	stats.StartDate = start.Format("2006-01-02")
	stats.EndDate = end.Format("2006-01-02")
	stats.TotalSpend = total

	monthly := MonthlySpend(filtered)
	if len(monthly) > 0 {
		sum := 0.0
		maxIdx, minIdx := 0, 0
		for i, m := range monthly {
			sum += m.Total
			if m.Total > monthly[maxIdx].Total {
				maxIdx = i
			}
			if m.Total < monthly[minIdx].Total {
				minIdx = i
			}
		}
		stats.AverageMonthlySpend = sum / float64(len(monthly))
		maxMonth, minMonth := monthly[maxIdx], monthly[minIdx]
		stats.MaxMonth = &maxMonth
		stats.MinMonth = &minMonth
	}

	stats.TopVendors = topVendors(filtered, 5)
	stats.BiggestBills = biggestBills(filtered, 5)

	return stats
}

func topVendors(rows []Row, limit int) []VendorTotal {
	totals := make(map[string]float64)
	for _, r := range rows {
		if r.IssuerName != "" {
			totals[r.IssuerName] += r.Total
		}
	}

	vendors := make([]VendorTotal, 0, len(totals))
	for name, total := range totals {
		vendors = append(vendors, VendorTotal{IssuerName: name, Total: total})
	}
	sort.Slice(vendors, func(i, j int) bool {
		if vendors[i].Total != vendors[j].Total {
			return vendors[i].Total > vendors[j].Total
		}
		return vendors[i].IssuerName < vendors[j].IssuerName
	})

	if len(vendors) > limit {
		vendors = vendors[:limit]
	}
	return vendors
}

func biggestBills(rows []Row, limit int) []BillRef {
	sorted := append([]Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].DocNumber < sorted[j].DocNumber
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	bills := make([]BillRef, len(sorted))
	for i, r := range sorted {
		bills[i] = BillRef{
			DocNumber:  r.DocNumber,
			IssuerName: r.IssuerName,
			IssueDate:  r.IssueDate.Format("2006-01-02"),
			Total:      r.Total,
		}
	}
	return bills
}

// Run loads the CSV, computes statistics, renders the plot and writes the
// Markdown report into reportsDir.
func Run(csvPath, reportsDir string) error {
	rows, err := LoadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("load database: %w", err)
	}

	stats := ComputeStats(rows)

	var monthly []MonthTotal
	if stats.HasData {
		filtered, _, _, _ := FilterCurrency(rows)
		monthly = MonthlySpend(filtered)
	}

	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	plotPath := filepath.Join(reportsDir, "monthly_spend.png")
	plotCreated, err := PlotMonthlySpend(monthly, plotPath)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	content := BuildMarkdown(stats, plotCreated)
	reportPath := filepath.Join(reportsDir, "spending_report.md")
	if err := os.WriteFile(reportPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.Info("Report written",
		"report", reportPath,
		"plot_created", plotCreated,
		"rows", len(rows))

	return nil
}
