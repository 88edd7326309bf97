package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
)

func newTestDetector(t *testing.T, opts ...DetectorOption) *Detector {
	t.Helper()
	return NewDetector(catalog.Default(), nil, opts...)
}

func spanishJournalTable() *table.Table {
	return table.New(
		[]string{"Asiento", "Fecha", "Cuenta", "Debe", "Haber"},
		[][]string{
			{"1", "15/01/2024", "430000", "100.00", "0"},
			{"1", "15/01/2024", "700000", "0", "100.00"},
			{"2", "20/02/2024", "430000", "50.00", "0"},
			{"2", "20/02/2024", "570000", "0", "50.00"},
		},
	)
}

func TestDetector_SpanishJournal(t *testing.T) {
	d := newTestDetector(t)
	result := d.Detect(spanishJournalTable(), "")

	assert.Equal(t, catalog.GenericES, result.ERPSystem)
	assert.Empty(t, result.Unmapped)

	want := map[string]catalog.Code{
		"Asiento": catalog.JournalEntryID,
		"Fecha":   catalog.PostingDate,
		"Cuenta":  catalog.GLAccountNumber,
		"Debe":    catalog.DebitAmount,
		"Haber":   catalog.CreditAmount,
	}
	assert.Equal(t, want, result.Mappings)

	for column, confidence := range result.Confidences {
		assert.GreaterOrEqual(t, confidence, 0.9, "column %s", column)
		assert.LessOrEqual(t, confidence, 1.0, "column %s", column)
	}
}

func TestDetector_BalanceDecidesJournalID(t *testing.T) {
	// Two identifier candidates: the one whose grouping balances the
	// amounts keeps the field, the other stays unmapped.
	tbl := table.New(
		[]string{"Entry No_", "Transaction No_", "Amount"},
		[][]string{
			{"1", "1001", "100.00"},
			{"1", "1002", "-100.00"},
			{"2", "1003", "50.00"},
			{"2", "1004", "-50.00"},
		},
	)

	d := newTestDetector(t)
	result := d.Detect(tbl, "Navision")

	assert.Equal(t, "Navision", result.ERPSystem)
	assert.Equal(t, catalog.JournalEntryID, result.Mappings["Entry No_"])
	assert.Equal(t, catalog.Amount, result.Mappings["Amount"])

	assert.Contains(t, result.Unmapped, "Transaction No_")
	assert.NotEmpty(t, result.Suggestions["Transaction No_"])
	assert.Equal(t, 2, result.Stats.JournalIDCandidates)
}

func TestDetector_HeaderDescriptionForced(t *testing.T) {
	tbl := table.New(
		[]string{"Descripción Cabecera", "Descripcion Linea"},
		[][]string{
			{"Cierre enero", "Compra material"},
			{"Cierre enero", "Pago nomina"},
			{"Cierre enero", "Factura suministros"},
		},
	)

	d := newTestDetector(t)
	result := d.Detect(tbl, catalog.GenericES)

	assert.Equal(t, catalog.Description, result.Mappings["Descripción Cabecera"])
	assert.Equal(t, 0.95, result.Confidences["Descripción Cabecera"])
	assert.Equal(t, SourceForced, result.Sources["Descripción Cabecera"])
	assert.Equal(t, catalog.LineDescription, result.Mappings["Descripcion Linea"])
}

func TestDetector_EntryDateReclassification(t *testing.T) {
	t.Run("single calendar year promotes to posting date", func(t *testing.T) {
		tbl := table.New(
			[]string{"Fecha Entrada"},
			[][]string{{"15/01/2024"}, {"20/03/2024"}, {"05/11/2024"}},
		)

		d := newTestDetector(t)
		result := d.Detect(tbl, "")

		assert.Equal(t, catalog.PostingDate, result.Mappings["Fecha Entrada"])
	})

	t.Run("multiple years keep entry date", func(t *testing.T) {
		tbl := table.New(
			[]string{"Fecha Entrada"},
			[][]string{{"15/01/2023"}, {"20/03/2024"}, {"05/11/2024"}},
		)

		d := newTestDetector(t)
		result := d.Detect(tbl, "")

		assert.Equal(t, catalog.EntryDate, result.Mappings["Fecha Entrada"])
	})

	t.Run("no promotion when posting date is taken", func(t *testing.T) {
		tbl := table.New(
			[]string{"Fecha Contable", "Fecha Entrada"},
			[][]string{
				{"15/01/2024", "16/01/2024"},
				{"20/03/2024", "21/03/2024"},
			},
		)

		d := newTestDetector(t)
		result := d.Detect(tbl, "")

		assert.Equal(t, catalog.PostingDate, result.Mappings["Fecha Contable"])
		assert.Equal(t, catalog.EntryDate, result.Mappings["Fecha Entrada"])
	})
}

func TestDetector_TranslatedColumnNames(t *testing.T) {
	tbl := table.New(
		[]string{"Soll", "Haben", "Buchung"},
		[][]string{
			{"100.00", "0", "1"},
			{"0", "100.00", "1"},
			{"50.00", "0", "2"},
			{"0", "50.00", "2"},
		},
	)

	d := newTestDetector(t)
	result := d.Detect(tbl, catalog.GenericES)

	assert.Equal(t, catalog.DebitAmount, result.Mappings["Soll"])
	assert.Equal(t, catalog.CreditAmount, result.Mappings["Haben"])
	assert.Equal(t, catalog.JournalEntryID, result.Mappings["Buchung"])
}

func TestDetector_EmptyTable(t *testing.T) {
	d := newTestDetector(t)

	result := d.Detect(nil, "")
	assert.Empty(t, result.Mappings)
	assert.Empty(t, result.Unmapped)

	result = d.Detect(&table.Table{}, "SAP")
	assert.Empty(t, result.Mappings)
}

func TestDetector_UnmappableColumnStaysUnmapped(t *testing.T) {
	tbl := table.New(
		[]string{"Fecha", "XZQW"},
		[][]string{
			{"15/01/2024", "##"},
			{"20/02/2024", "~~"},
		},
	)

	d := newTestDetector(t)
	result := d.Detect(tbl, "")

	assert.Equal(t, catalog.PostingDate, result.Mappings["Fecha"])
	assert.Contains(t, result.Unmapped, "XZQW")
}

func TestDetector_MappingIsInjective(t *testing.T) {
	// Several columns compete for the same fields; each field may appear
	// at most once in the final mapping.
	tbl := table.New(
		[]string{"Fecha", "Fecha Contable", "Importe", "Saldo", "Asiento", "Num Asiento"},
		[][]string{
			{"01/01/2024", "02/01/2024", "100.50", "200.75", "1", "1"},
			{"05/01/2024", "06/01/2024", "-80.25", "-150.00", "1", "2"},
			{"09/01/2024", "10/01/2024", "300.00", "410.10", "2", "3"},
		},
	)

	d := newTestDetector(t)
	result := d.Detect(tbl, "")

	seen := make(map[catalog.Code]string)
	for column, field := range result.Mappings {
		previous, dup := seen[field]
		require.False(t, dup, "field %s mapped to both %s and %s", field, previous, column)
		seen[field] = column
	}

	for column := range result.Mappings {
		assert.NotContains(t, result.Unmapped, column)
	}
}

func TestDetector_Deterministic(t *testing.T) {
	d := newTestDetector(t)

	first := d.Detect(spanishJournalTable(), "")
	for i := 0; i < 5; i++ {
		next := d.Detect(spanishJournalTable(), "")
		assert.Equal(t, first.Mappings, next.Mappings)
		assert.Equal(t, first.Confidences, next.Confidences)
		assert.Equal(t, first.Unmapped, next.Unmapped)
	}
}

func TestDetector_Options(t *testing.T) {
	t.Run("high threshold suppresses weak mappings", func(t *testing.T) {
		tbl := table.New(
			[]string{"Concepto"},
			[][]string{{"Ventas"}, {"Ventas"}, {"Compras"}},
		)

		strict := newTestDetector(t, WithMinConfidence(0.99))
		result := strict.Detect(tbl, "")
		assert.Empty(t, result.Mappings)

		relaxed := newTestDetector(t)
		result = relaxed.Detect(tbl, "")
		assert.Equal(t, catalog.Description, result.Mappings["Concepto"])
	})

	t.Run("sample size bounds content analysis", func(t *testing.T) {
		rows := make([][]string, 200)
		for i := range rows {
			rows[i] = []string{"15/01/2024"}
		}
		tbl := table.New([]string{"Fecha"}, rows)

		d := newTestDetector(t, WithSampleSize(10))
		result := d.Detect(tbl, "")
		assert.Equal(t, catalog.PostingDate, result.Mappings["Fecha"])
	})
}

func TestPrioritizeColumns(t *testing.T) {
	got := prioritizeColumns([]string{"Observaciones", "Fecha", "Descripcion", "Debe", "Cabecera", "Haber"})

	assert.Equal(t, []string{"Debe", "Haber", "Fecha", "Cabecera", "Descripcion", "Observaciones"}, got)
}

func TestSameCalendarYear(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   bool
	}{
		{"same year layouts", []string{"15/01/2024", "2024-06-30"}, true},
		{"different years", []string{"15/01/2023", "15/01/2024"}, false},
		{"year extracted from free text", []string{"ejercicio 2024", "cierre 2024"}, true},
		{"no year at all", []string{"sin fecha"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameCalendarYear(tt.values))
		})
	}
}
