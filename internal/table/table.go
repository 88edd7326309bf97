// Package table provides the minimal tabular model consumed by the mapping
// engine: named columns holding raw cell values as decoded from the source
// file, plus the plain-iteration statistics the content analyzers rely on.
package table

import "strings"

// Column is a single named column with its raw cell values in file order.
// An empty string is a missing cell.
type Column struct {
	Name   string
	Values []string
}

// Table is an ordered collection of columns from one input file.
type Table struct {
	Columns []Column
}

// New builds a table from parallel header and row slices. Rows shorter than
// the header are padded with empty cells; longer rows are truncated.
func New(headers []string, rows [][]string) *Table {
	t := &Table{Columns: make([]Column, len(headers))}
	for i, h := range headers {
		t.Columns[i] = Column{Name: strings.TrimSpace(h), Values: make([]string, 0, len(rows))}
	}
	for _, row := range rows {
		for i := range t.Columns {
			if i < len(row) {
				t.Columns[i].Values = append(t.Columns[i].Values, strings.TrimSpace(row[i]))
			} else {
				t.Columns[i].Values = append(t.Columns[i].Values, "")
			}
		}
	}
	return t
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the column with the given name, or nil.
func (t *Table) Lookup(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// RowCount returns the number of rows (length of the longest column).
func (t *Table) RowCount() int {
	max := 0
	for _, c := range t.Columns {
		if len(c.Values) > max {
			max = len(c.Values)
		}
	}
	return max
}

// Sample returns up to n non-empty values from the column, preserving order.
func (c *Column) Sample(n int) []string {
	out := make([]string, 0, n)
	for _, v := range c.Values {
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) >= n {
			break
		}
	}
	return out
}

// NonEmpty returns all non-empty values in order.
func (c *Column) NonEmpty() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// UniqueRatio is the share of distinct values among the given sample.
// Returns 0 for an empty sample.
func UniqueRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return float64(len(seen)) / float64(len(values))
}

// AvgLen is the mean rune length of the given sample.
func AvgLen(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += len([]rune(v))
	}
	return float64(total) / float64(len(values))
}
