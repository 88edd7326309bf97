package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	t.Run("reads rows after the detected header", func(t *testing.T) {
		input := "Titulo del informe\nAsiento;Fecha;Debe;Haber\n1;15/01/2024;100,00;0\n2;16/01/2024;0;100,00\n"

		tbl, config, err := ReadCSV(strings.NewReader(input), nil)
		require.NoError(t, err)

		assert.Equal(t, 1, config.SkipLines)
		require.Len(t, tbl.Columns, 4)
		assert.Equal(t, []string{"Asiento", "Fecha", "Debe", "Haber"}, tbl.ColumnNames())
		assert.Equal(t, []string{"1", "2"}, tbl.Lookup("Asiento").Values)
		assert.Equal(t, []string{"100,00", "0"}, tbl.Lookup("Debe").Values)
	})

	t.Run("short rows are padded", func(t *testing.T) {
		input := "Fecha;Debe;Haber\n15/01/2024;100\n"

		tbl, _, err := ReadCSV(strings.NewReader(input), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{""}, tbl.Lookup("Haber").Values)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, _, err := ReadCSV(strings.NewReader(""), nil)
		assert.Error(t, err)
	})
}

func TestReadExcel(t *testing.T) {
	buildWorkbook := func(t *testing.T, sheet string, rows [][]interface{}) *bytes.Buffer {
		t.Helper()
		f := excelize.NewFile()
		defer f.Close()

		require.NoError(t, f.SetSheetName("Sheet1", sheet))
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}

		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))
		return &buf
	}

	t.Run("reads the journal sheet", func(t *testing.T) {
		buf := buildWorkbook(t, "Diario", [][]interface{}{
			{"Asiento", "Fecha", "Debe", "Haber"},
			{"1", "15/01/2024", "100", "0"},
			{"1", "15/01/2024", "0", "100"},
		})

		tbl, err := ReadExcel(buf)
		require.NoError(t, err)

		assert.Equal(t, []string{"Asiento", "Fecha", "Debe", "Haber"}, tbl.ColumnNames())
		assert.Equal(t, 2, tbl.RowCount())
	})

	t.Run("skips banner rows above the header", func(t *testing.T) {
		buf := buildWorkbook(t, "Export", [][]interface{}{
			{"Empresa Ejemplo SA"},
			{},
			{"Asiento", "Fecha", "Debe", "Haber"},
			{"1", "15/01/2024", "100", "0"},
		})

		tbl, err := ReadExcel(buf)
		require.NoError(t, err)

		assert.Equal(t, []string{"Asiento", "Fecha", "Debe", "Haber"}, tbl.ColumnNames())
		assert.Equal(t, 1, tbl.RowCount())
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ReadExcel(strings.NewReader("plain text"))
		assert.Error(t, err)
	})
}
