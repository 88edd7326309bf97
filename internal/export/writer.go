// Package export emits the standardized header and detail CSV files from a
// cleaned, canonical table. The header file carries one row per journal
// entry, the detail file one row per line.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
)

// HeaderRow is one journal entry in the header output file.
type HeaderRow struct {
	JournalEntryID string `csv:"journal_entry_id"`
	Description    string `csv:"description"`
	PostingDate    string `csv:"posting_date"`
	FiscalYear     string `csv:"fiscal_year"`
	PeriodNumber   string `csv:"period_number"`
	PreparedBy     string `csv:"prepared_by"`
	EntryDate      string `csv:"entry_date"`
	EntryTime      string `csv:"entry_time"`
	DocumentNumber string `csv:"document_number"`
}

// DetailRow is one journal line in the detail output file.
type DetailRow struct {
	JournalEntryID       string `csv:"journal_entry_id"`
	LineNumber           string `csv:"line_number"`
	LineDescription      string `csv:"line_description"`
	GLAccountNumber      string `csv:"gl_account_number"`
	GLAccountName        string `csv:"gl_account_name"`
	Amount               string `csv:"amount"`
	DebitAmount          string `csv:"debit_amount"`
	CreditAmount         string `csv:"credit_amount"`
	DebitCreditIndicator string `csv:"debit_credit_indicator"`
	VendorID             string `csv:"vendor_id"`
}

// Writer emits <prefix>_header.csv and <prefix>_detail.csv into a
// directory, creating it when needed.
type Writer struct {
	outDir string
	prefix string
	logger *slog.Logger
}

func NewWriter(outDir, prefix string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{outDir: outDir, prefix: prefix, logger: logger}
}

// Write produces both output files from a canonical table and returns their
// paths. Canonical fields absent from the table come out as empty columns,
// so the output schema is stable regardless of what was mapped.
func (w *Writer) Write(t *table.Table) (headerPath, detailPath string, err error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	headerPath = filepath.Join(w.outDir, w.prefix+"_header.csv")
	detailPath = filepath.Join(w.outDir, w.prefix+"_detail.csv")

	if err := w.writeHeaders(t, headerPath); err != nil {
		return "", "", err
	}
	if err := w.writeDetails(t, detailPath); err != nil {
		return "", "", err
	}

	w.logger.Info("standardized files written",
		slog.String("header", headerPath),
		slog.String("detail", detailPath))
	return headerPath, detailPath, nil
}

// writeHeaders deduplicates by journal_entry_id keeping the first row of
// each entry. Without an id column every row is its own entry.
func (w *Writer) writeHeaders(t *table.Table, path string) error {
	cell := cellReader(t)
	rowCount := t.RowCount()

	rows := make([]HeaderRow, 0, rowCount)
	seen := make(map[string]struct{}, rowCount)
	for i := 0; i < rowCount; i++ {
		id := cell(catalog.JournalEntryID, i)
		if id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		rows = append(rows, HeaderRow{
			JournalEntryID: id,
			Description:    cell(catalog.Description, i),
			PostingDate:    cell(catalog.PostingDate, i),
			FiscalYear:     cell(catalog.FiscalYear, i),
			PeriodNumber:   cell(catalog.PeriodNumber, i),
			PreparedBy:     cell(catalog.PreparedBy, i),
			EntryDate:      cell(catalog.EntryDate, i),
			EntryTime:      cell(catalog.EntryTime, i),
			DocumentNumber: cell(catalog.DocumentNumber, i),
		})
	}
	return w.marshalCSV(&rows, path)
}

func (w *Writer) writeDetails(t *table.Table, path string) error {
	cell := cellReader(t)
	rowCount := t.RowCount()

	rows := make([]DetailRow, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		rows = append(rows, DetailRow{
			JournalEntryID:       cell(catalog.JournalEntryID, i),
			LineNumber:           cell(catalog.LineNumber, i),
			LineDescription:      cell(catalog.LineDescription, i),
			GLAccountNumber:      cell(catalog.GLAccountNumber, i),
			GLAccountName:        cell(catalog.GLAccountName, i),
			Amount:               cell(catalog.Amount, i),
			DebitAmount:          cell(catalog.DebitAmount, i),
			CreditAmount:         cell(catalog.CreditAmount, i),
			DebitCreditIndicator: cell(catalog.DebitCreditIndicator, i),
			VendorID:             cell(catalog.VendorID, i),
		})
	}
	return w.marshalCSV(&rows, path)
}

func (w *Writer) marshalCSV(rows any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// cellReader returns an accessor over the canonical columns that yields ""
// for absent columns and short rows.
func cellReader(t *table.Table) func(catalog.Code, int) string {
	columns := make(map[catalog.Code]*table.Column, len(t.Columns))
	for i := range t.Columns {
		columns[catalog.Code(t.Columns[i].Name)] = &t.Columns[i]
	}
	return func(code catalog.Code, row int) string {
		c, ok := columns[code]
		if !ok || row >= len(c.Values) {
			return ""
		}
		return c.Values[row]
	}
}
