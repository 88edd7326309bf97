package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/asanchezr/ledgermap/internal/table"
)

// ReadCSV sniffs and reads a delimited export into a table. opts may be nil.
func ReadCSV(r io.Reader, opts *DetectOptions) (*table.Table, *FileConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}

	config, err := DetectConfigWithOptions(data, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("detecting file format: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = config.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines (report footers, page breaks) are skipped,
			// not fatal.
			lineNum++
			continue
		}
		if lineNum > config.SkipLines {
			rows = append(rows, record)
		}
		lineNum++
	}

	return table.New(config.Headers, rows), config, nil
}

// ReadExcel reads the first suitable sheet of an xlsx workbook into a
// table. The sheet whose first rows score best on accounting keywords wins;
// ties go to sheet order.
func ReadExcel(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(nil, nil), nil
	}

	headerIdx := findExcelHeaderRow(rows)
	return table.New(rows[headerIdx], rows[headerIdx+1:]), nil
}

func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}

	best := sheets[0]
	bestScore := -1
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		score := keywordScore(rows[findExcelHeaderRow(rows)])
		if score > bestScore {
			bestScore = score
			best = sheet
		}
	}
	return best
}

// findExcelHeaderRow scans the first 20 rows for the best keyword score,
// mirroring the CSV sniffer's header search.
func findExcelHeaderRow(rows [][]string) int {
	bestIdx, bestScore := 0, 0
	for i, row := range rows {
		if i > 20 {
			break
		}
		if score := keywordScore(row); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return bestIdx
}

func keywordScore(row []string) int {
	joined := strings.ToLower(strings.Join(row, " "))
	score := 0
	for _, kw := range headerKeywords {
		if strings.Contains(joined, kw) {
			score++
		}
	}
	return score
}
