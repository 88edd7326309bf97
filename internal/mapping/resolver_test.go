package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanchezr/ledgermap/internal/balance"
	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
)

func TestResolver_Resolve(t *testing.T) {
	t.Run("unclaimed field is claimed directly", func(t *testing.T) {
		r := NewResolver(nil)

		resolved, ok := r.Resolve("Fecha", Candidate{Field: catalog.PostingDate, Confidence: 0.9, Source: SourceExact}, nil)

		require.True(t, ok)
		assert.Equal(t, catalog.PostingDate, resolved.Field)

		column, claimed := r.Claimed(catalog.PostingDate)
		require.True(t, claimed)
		assert.Equal(t, "Fecha", column)
		assert.Equal(t, 1, r.Stats().Claims)
	})

	t.Run("clearly higher confidence displaces the incumbent", func(t *testing.T) {
		r := NewResolver(nil)
		r.Resolve("Col1", Candidate{Field: catalog.PostingDate, Confidence: 0.5, Source: SourceContent}, nil)

		_, ok := r.Resolve("Fecha Contable", Candidate{Field: catalog.PostingDate, Confidence: 0.75, Source: SourceExact}, nil)

		require.True(t, ok)
		column, _ := r.Claimed(catalog.PostingDate)
		assert.Equal(t, "Fecha Contable", column)

		// The loser is fully released.
		_, stillMapped := r.Confidence("Col1")
		assert.False(t, stillMapped)
		_, inMapping := r.Mapping()["Col1"]
		assert.False(t, inMapping)

		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonHigherConfidence, r.Outcomes()[0].Reason)
		assert.Equal(t, 1, r.Stats().Reassignments)
	})

	t.Run("confidence within the margin keeps the incumbent", func(t *testing.T) {
		r := NewResolver(nil)
		r.Resolve("Col1", Candidate{Field: catalog.VendorID, Confidence: 0.6, Source: SourceContent}, nil)

		_, ok := r.Resolve("Col2", Candidate{Field: catalog.VendorID, Confidence: 0.7, Source: SourceContent}, nil)

		assert.False(t, ok)
		column, _ := r.Claimed(catalog.VendorID)
		assert.Equal(t, "Col1", column)
		assert.Equal(t, 1, r.Stats().ConflictsKept)

		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonKeptExisting, r.Outcomes()[0].Reason)
	})

	t.Run("named amount column with monetary spread wins the amount slot", func(t *testing.T) {
		r := NewResolver(nil)
		r.Resolve("Valor", Candidate{Field: catalog.Amount, Confidence: 0.9, Source: SourceContent}, nil)

		_, ok := r.Resolve("Saldo",
			Candidate{Field: catalog.Amount, Confidence: 0.85, Source: SourceExact},
			[]string{"1500.50", "-200.10", "300.75"})

		require.True(t, ok)
		column, _ := r.Claimed(catalog.Amount)
		assert.Equal(t, "Saldo", column)
		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonBetterAmount, r.Outcomes()[0].Reason)
	})

	t.Run("amount indicator without numeric spread does not win", func(t *testing.T) {
		r := NewResolver(nil)
		r.Resolve("Importe", Candidate{Field: catalog.Amount, Confidence: 0.9, Source: SourceContent}, nil)

		_, ok := r.Resolve("Saldo",
			Candidate{Field: catalog.Amount, Confidence: 0.85, Source: SourceExact},
			[]string{"1", "1", "1"})

		assert.False(t, ok)
		column, _ := r.Claimed(catalog.Amount)
		assert.Equal(t, "Importe", column)
	})

	t.Run("more specific name wins a close conflict", func(t *testing.T) {
		r := NewResolver(nil)
		r.Resolve("Columna7", Candidate{Field: catalog.DebitAmount, Confidence: 0.9, Source: SourceContent}, nil)

		_, ok := r.Resolve("Debe", Candidate{Field: catalog.DebitAmount, Confidence: 0.85, Source: SourceExact}, nil)

		require.True(t, ok)
		column, _ := r.Claimed(catalog.DebitAmount)
		assert.Equal(t, "Debe", column)
		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonMoreSpecificName, r.Outcomes()[0].Reason)
	})
}

func balancedTestTable() *table.Table {
	// Entry No_ groups lines into balanced pairs; Transaction No_ is unique
	// per line so no group can balance on its own.
	return table.New(
		[]string{"Entry No_", "Transaction No_", "Amount"},
		[][]string{
			{"1", "1001", "100.00"},
			{"1", "1002", "-100.00"},
			{"2", "1003", "50.00"},
			{"2", "1004", "-50.00"},
		},
	)
}

func TestResolver_BalanceTieBreak(t *testing.T) {
	t.Run("better balancing column displaces the incumbent", func(t *testing.T) {
		data := balancedTestTable()
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Amount", Candidate{Field: catalog.Amount, Confidence: 0.9, Source: SourceExact}, nil)
		r.Resolve("Transaction No_", Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		resolved, ok := r.Resolve("Entry No_",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.85, Source: SourceExact}, nil)

		require.True(t, ok)
		assert.Equal(t, SourceBalance, resolved.Source)

		column, _ := r.Claimed(catalog.JournalEntryID)
		assert.Equal(t, "Entry No_", column)
		_, stillMapped := r.Mapping()["Transaction No_"]
		assert.False(t, stillMapped)

		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonBalanceScore, r.Outcomes()[0].Reason)
		assert.Equal(t, 1, r.Stats().BalanceResolutions)
		assert.Equal(t, 2, r.Stats().JournalIDCandidates)
	})

	t.Run("incumbent confirmed when it balances better", func(t *testing.T) {
		data := balancedTestTable()
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Amount", Candidate{Field: catalog.Amount, Confidence: 0.9, Source: SourceExact}, nil)
		r.Resolve("Entry No_", Candidate{Field: catalog.JournalEntryID, Confidence: 0.85, Source: SourceExact}, nil)

		_, ok := r.Resolve("Transaction No_",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		assert.False(t, ok)
		column, _ := r.Claimed(catalog.JournalEntryID)
		assert.Equal(t, "Entry No_", column)
		assert.Equal(t, 0, r.Stats().BalanceResolutions)
	})

	t.Run("score tie falls back to confidence", func(t *testing.T) {
		// Both candidates group lines identically, so the scores tie and
		// the higher-confidence proposal wins.
		data := table.New(
			[]string{"ColA", "ColB", "Amount"},
			[][]string{
				{"1", "A", "100.00"},
				{"1", "A", "-100.00"},
				{"2", "B", "50.00"},
				{"2", "B", "-50.00"},
			},
		)
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Amount", Candidate{Field: catalog.Amount, Confidence: 0.9, Source: SourceExact}, nil)
		r.Resolve("ColA", Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		_, ok := r.Resolve("ColB",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.9, Source: SourceExact}, nil)

		require.True(t, ok)
		column, _ := r.Claimed(catalog.JournalEntryID)
		assert.Equal(t, "ColB", column)
		require.Len(t, r.Outcomes(), 1)
		assert.Equal(t, ReasonBalanceConfidence, r.Outcomes()[0].Reason)
	})

	t.Run("split debit and credit columns feed the oracle", func(t *testing.T) {
		data := table.New(
			[]string{"Entry No_", "Transaction No_", "Debe", "Haber"},
			[][]string{
				{"1", "1001", "100.00", "0"},
				{"1", "1002", "0", "100.00"},
				{"2", "1003", "50.00", "0"},
				{"2", "1004", "0", "50.00"},
			},
		)
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Debe", Candidate{Field: catalog.DebitAmount, Confidence: 0.95, Source: SourceExact}, nil)
		r.Resolve("Haber", Candidate{Field: catalog.CreditAmount, Confidence: 0.95, Source: SourceExact}, nil)
		r.Resolve("Transaction No_", Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		_, ok := r.Resolve("Entry No_",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.85, Source: SourceExact}, nil)

		require.True(t, ok)
		column, _ := r.Claimed(catalog.JournalEntryID)
		assert.Equal(t, "Entry No_", column)
	})

	t.Run("no reliable amount claim falls back to generic rules", func(t *testing.T) {
		data := balancedTestTable()
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Transaction No_", Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		_, ok := r.Resolve("Entry No_",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.85, Source: SourceExact}, nil)

		assert.False(t, ok)
		column, _ := r.Claimed(catalog.JournalEntryID)
		assert.Equal(t, "Transaction No_", column)
		assert.Equal(t, 1, r.Stats().BalanceFallbacks)
	})

	t.Run("low confidence amount claim does not arm the oracle", func(t *testing.T) {
		data := balancedTestTable()
		r := NewResolver(nil, WithBalanceOracle(balance.NewValidator(balance.DefaultTolerance), data))

		r.Resolve("Amount", Candidate{Field: catalog.Amount, Confidence: 0.6, Source: SourceContent}, nil)
		r.Resolve("Transaction No_", Candidate{Field: catalog.JournalEntryID, Confidence: 0.8, Source: SourceExact}, nil)

		_, ok := r.Resolve("Entry No_",
			Candidate{Field: catalog.JournalEntryID, Confidence: 0.85, Source: SourceExact}, nil)

		assert.False(t, ok)
		assert.Equal(t, 1, r.Stats().BalanceFallbacks)
	})
}

func TestResolver_Force(t *testing.T) {
	r := NewResolver(nil)

	forced, ok := r.Force("Descripción Cabecera", catalog.Description, 0.95)
	require.True(t, ok)
	assert.Equal(t, SourceForced, forced.Source)
	assert.Equal(t, 1, r.Stats().ForcedMappings)

	t.Run("refused when the field is already claimed", func(t *testing.T) {
		_, ok := r.Force("Otra Columna", catalog.Description, 0.95)
		assert.False(t, ok)

		column, _ := r.Claimed(catalog.Description)
		assert.Equal(t, "Descripción Cabecera", column)
	})
}

func TestResolver_Reclassify(t *testing.T) {
	r := NewResolver(nil)
	r.Resolve("Fecha Entrada", Candidate{Field: catalog.EntryDate, Confidence: 0.9, Source: SourceExact}, nil)

	t.Run("moves the claim to the new field", func(t *testing.T) {
		require.True(t, r.Reclassify("Fecha Entrada", catalog.EntryDate, catalog.PostingDate))

		assert.Equal(t, catalog.PostingDate, r.Mapping()["Fecha Entrada"])
		_, stillClaimed := r.Claimed(catalog.EntryDate)
		assert.False(t, stillClaimed)
	})

	t.Run("fails when the column does not own the source field", func(t *testing.T) {
		assert.False(t, r.Reclassify("Otra", catalog.PostingDate, catalog.EntryDate))
	})

	t.Run("fails when the target is taken", func(t *testing.T) {
		r.Resolve("Fecha Real", Candidate{Field: catalog.EntryDate, Confidence: 0.9, Source: SourceExact}, nil)
		assert.False(t, r.Reclassify("Fecha Real", catalog.EntryDate, catalog.PostingDate))
	})
}

func TestResolver_WithSpecificity(t *testing.T) {
	custom := map[catalog.Code][]string{
		catalog.VendorID: {"tercero"},
	}
	r := NewResolver(nil, WithSpecificity(custom))
	r.Resolve("Col9", Candidate{Field: catalog.VendorID, Confidence: 0.8, Source: SourceContent}, nil)

	_, ok := r.Resolve("ID Tercero", Candidate{Field: catalog.VendorID, Confidence: 0.75, Source: SourceExact}, nil)

	require.True(t, ok)
	column, _ := r.Claimed(catalog.VendorID)
	assert.Equal(t, "ID Tercero", column)
}
