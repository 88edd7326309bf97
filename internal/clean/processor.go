// Package clean standardizes a mapped table: currency strings become plain
// decimals, dates become ISO, and missing debit/credit structure is derived
// from what the export does carry.
package clean

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
	"github.com/asanchezr/ledgermap/pkg/money"
)

// dateLayouts are tried in order when normalizing date fields to ISO.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
	"20060102",
}

// Stats reports what the processor changed.
type Stats struct {
	Rows                int
	NumericCleaned      int
	DatesNormalized     int
	DatesUnparsed       int
	DebitCreditDerived  bool
	IndicatorsGenerated int
}

// Processor rewrites a mapped table into canonical, cleaned form.
type Processor struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewProcessor(cat *catalog.Catalog, logger *slog.Logger) *Processor {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{catalog: cat, logger: logger}
}

// Process renames mapped columns to their canonical codes and cleans each
// by data type. Unmapped columns are dropped. When only a signed amount is
// present, synthetic debit_amount and credit_amount columns are derived;
// an absent or empty debit_credit_indicator is regenerated as D/H.
func (p *Processor) Process(t *table.Table, mappings map[string]catalog.Code) (*table.Table, Stats) {
	stats := Stats{Rows: t.RowCount()}

	out := &table.Table{}
	for _, column := range t.Columns {
		code, mapped := mappings[column.Name]
		if !mapped {
			continue
		}

		cleaned := table.Column{Name: string(code), Values: make([]string, len(column.Values))}
		copy(cleaned.Values, column.Values)

		field, _ := p.catalog.Field(code)
		switch field.DataType {
		case catalog.TypeCurrency, catalog.TypeNumeric:
			p.cleanNumeric(&cleaned, &stats)
		case catalog.TypeDate:
			p.normalizeDates(&cleaned, &stats)
		}
		out.Columns = append(out.Columns, cleaned)
	}

	p.deriveDebitCredit(out, &stats)
	p.regenerateIndicator(out, &stats)

	p.logger.Info("table cleaned",
		slog.Int("rows", stats.Rows),
		slog.Int("numeric_cleaned", stats.NumericCleaned),
		slog.Int("dates_normalized", stats.DatesNormalized),
		slog.Bool("debit_credit_derived", stats.DebitCreditDerived))
	return out, stats
}

func (p *Processor) cleanNumeric(c *table.Column, stats *Stats) {
	for i, raw := range c.Values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed, err := money.Parse(raw)
		if err != nil {
			// Unparseable cells become zero rather than aborting the run.
			c.Values[i] = "0"
			continue
		}
		normalized := parsed.String()
		if normalized != raw {
			stats.NumericCleaned++
		}
		c.Values[i] = normalized
	}
}

func (p *Processor) normalizeDates(c *table.Column, stats *Stats) {
	for i, raw := range c.Values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		parsed, ok := parseDate(v)
		if !ok {
			stats.DatesUnparsed++
			continue
		}
		iso := parsed.Format("2006-01-02")
		if iso != raw {
			stats.DatesNormalized++
		}
		c.Values[i] = iso
	}
}

// deriveDebitCredit splits a lone signed amount column into debit and
// credit columns when the export carries no explicit ones.
func (p *Processor) deriveDebitCredit(t *table.Table, stats *Stats) {
	amount := t.Lookup(string(catalog.Amount))
	if amount == nil {
		return
	}
	if t.Lookup(string(catalog.DebitAmount)) != nil || t.Lookup(string(catalog.CreditAmount)) != nil {
		return
	}

	debits := make([]string, len(amount.Values))
	credits := make([]string, len(amount.Values))
	for i, raw := range amount.Values {
		v := money.ParseOrZero(raw)
		switch {
		case v.IsPositive():
			debits[i] = v.String()
			credits[i] = "0"
		case v.IsNegative():
			debits[i] = "0"
			credits[i] = v.Neg().String()
		default:
			debits[i] = "0"
			credits[i] = "0"
		}
	}
	t.Columns = append(t.Columns,
		table.Column{Name: string(catalog.DebitAmount), Values: debits},
		table.Column{Name: string(catalog.CreditAmount), Values: credits},
	)
	stats.DebitCreditDerived = true
}

// regenerateIndicator fills empty debit/credit indicator cells from the
// amounts: D when the debit side carries the value, H otherwise.
func (p *Processor) regenerateIndicator(t *table.Table, stats *Stats) {
	debit := t.Lookup(string(catalog.DebitAmount))
	credit := t.Lookup(string(catalog.CreditAmount))
	if debit == nil || credit == nil {
		return
	}

	indicator := t.Lookup(string(catalog.DebitCreditIndicator))
	if indicator == nil {
		t.Columns = append(t.Columns, table.Column{
			Name:   string(catalog.DebitCreditIndicator),
			Values: make([]string, len(debit.Values)),
		})
		indicator = &t.Columns[len(t.Columns)-1]
	}

	for i := range indicator.Values {
		if strings.TrimSpace(indicator.Values[i]) != "" {
			continue
		}
		d := decimal.Zero
		if i < len(debit.Values) {
			d = money.ParseOrZero(debit.Values[i])
		}
		if d.IsPositive() {
			indicator.Values[i] = "D"
		} else {
			indicator.Values[i] = "H"
		}
		stats.IndicatorsGenerated++
	}
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			if y := t.Year(); y >= 1900 && y <= 2100 {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
