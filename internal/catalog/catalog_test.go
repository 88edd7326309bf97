package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Len(t, c.Fields(), 18)
	assert.Greater(t, c.SynonymCount(), 40)

	t.Run("all fields canonical", func(t *testing.T) {
		for _, f := range c.Fields() {
			assert.True(t, IsCanonical(f.Code))
			assert.NotEmpty(t, f.DisplayName)
			assert.NotEmpty(t, f.DataType)
		}
	})

	t.Run("erp systems present", func(t *testing.T) {
		erps := c.ERPSystems()
		assert.Contains(t, erps, GenericES)
		assert.Contains(t, erps, "SAP")
		assert.Contains(t, erps, "Oracle")
		assert.Contains(t, erps, "Navision")
	})
}

func TestCatalog_Field(t *testing.T) {
	c := Default()

	f, ok := c.Field(Amount)
	require.True(t, ok)
	assert.Equal(t, TypeCurrency, f.DataType)

	_, ok = c.Field(Code("not_a_field"))
	assert.False(t, ok)
}

func TestCatalog_SynonymsFor(t *testing.T) {
	c := Default()

	t.Run("erp scoped lookup", func(t *testing.T) {
		syns := c.SynonymsFor(DebitAmount, GenericES)
		names := make([]string, 0, len(syns))
		for _, s := range syns {
			names = append(names, s.Name)
		}
		assert.Contains(t, names, "debe")
	})

	t.Run("unknown erp yields nothing", func(t *testing.T) {
		assert.Empty(t, c.SynonymsFor(DebitAmount, "Xero"))
	})

	t.Run("all synonyms span every erp", func(t *testing.T) {
		all := c.AllSynonyms(JournalEntryID)
		names := make([]string, 0, len(all))
		for _, s := range all {
			names = append(names, s.Name)
		}
		assert.Contains(t, names, "asiento")
		assert.Contains(t, names, "belnr")
		assert.Contains(t, names, "entry no_")
	})
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Run("unknown field code rejected", func(t *testing.T) {
		_, err := NewCatalog([]Field{{Code: "made_up", DisplayName: "x", DataType: TypeText}}, nil)
		assert.Error(t, err)
	})

	t.Run("duplicate field code rejected", func(t *testing.T) {
		fields := []Field{
			{Code: Amount, DisplayName: "Importe", DataType: TypeCurrency},
			{Code: Amount, DisplayName: "Importe", DataType: TypeCurrency},
		}
		_, err := NewCatalog(fields, nil)
		assert.Error(t, err)
	})

	t.Run("synonyms for undefined field rejected", func(t *testing.T) {
		fields := []Field{{Code: Amount, DisplayName: "Importe", DataType: TypeCurrency}}
		synonyms := map[Code]map[string][]Synonym{
			DebitAmount: {GenericES: {{Name: "debe", ConfidenceBoost: 0.9}}},
		}
		_, err := NewCatalog(fields, synonyms)
		assert.Error(t, err)
	})

	t.Run("boost out of range rejected", func(t *testing.T) {
		fields := []Field{{Code: Amount, DisplayName: "Importe", DataType: TypeCurrency}}
		synonyms := map[Code]map[string][]Synonym{
			Amount: {GenericES: {{Name: "importe", ConfidenceBoost: 1.5}}},
		}
		_, err := NewCatalog(fields, synonyms)
		assert.Error(t, err)
	})

	t.Run("empty synonym name rejected", func(t *testing.T) {
		fields := []Field{{Code: Amount, DisplayName: "Importe", DataType: TypeCurrency}}
		synonyms := map[Code]map[string][]Synonym{
			Amount: {GenericES: {{Name: "  ", ConfidenceBoost: 0.5}}},
		}
		_, err := NewCatalog(fields, synonyms)
		assert.Error(t, err)
	})
}

func TestSchemas(t *testing.T) {
	for _, code := range HeaderFields {
		assert.True(t, IsCanonical(code))
	}
	for _, code := range DetailFields {
		assert.True(t, IsCanonical(code))
	}
	// journal_entry_id keys both files together.
	assert.Equal(t, JournalEntryID, HeaderFields[0])
	assert.Equal(t, JournalEntryID, DetailFields[0])
}
