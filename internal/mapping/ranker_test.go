package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanchezr/ledgermap/internal/catalog"
)

func TestRanker_Rank(t *testing.T) {
	r := NewRanker(minConfidence)

	t.Run("exact match alone passes through", func(t *testing.T) {
		best, ok := r.Rank([]Candidate{
			{Field: catalog.DebitAmount, Confidence: 0.95, Source: SourceExact},
		}, nil)

		require.True(t, ok)
		assert.Equal(t, catalog.DebitAmount, best.Field)
		assert.Equal(t, 0.95, best.Confidence)
		assert.Equal(t, SourceExact, best.Source)
	})

	t.Run("content reinforces an exact match at 70/30", func(t *testing.T) {
		best, ok := r.Rank(
			[]Candidate{{Field: catalog.Amount, Confidence: 0.9, Source: SourceExact}},
			map[catalog.Code]float64{catalog.Amount: 0.8},
		)

		require.True(t, ok)
		assert.InDelta(t, 0.9*0.7+0.8*0.3, best.Confidence, 1e-9)
		assert.Equal(t, SourceCombined, best.Source)
	})

	t.Run("content alone enters scaled down", func(t *testing.T) {
		best, ok := r.Rank(nil, map[catalog.Code]float64{catalog.PostingDate: 0.9})

		require.True(t, ok)
		assert.Equal(t, catalog.PostingDate, best.Field)
		assert.InDelta(t, 0.72, best.Confidence, 1e-9)
		assert.Equal(t, SourceContent, best.Source)
	})

	t.Run("below threshold stays unmapped", func(t *testing.T) {
		_, ok := r.Rank(nil, map[catalog.Code]float64{catalog.VendorID: 0.35})
		assert.False(t, ok)
	})

	t.Run("no signal stays unmapped", func(t *testing.T) {
		_, ok := r.Rank(nil, nil)
		assert.False(t, ok)
	})

	t.Run("strongest merged candidate wins", func(t *testing.T) {
		best, ok := r.Rank(
			[]Candidate{
				{Field: catalog.EntryDate, Confidence: 0.95, Source: SourceExact},
			},
			map[catalog.Code]float64{
				catalog.EntryDate:   0.85,
				catalog.PostingDate: 0.9,
			},
		)

		require.True(t, ok)
		// entry_date 0.95*0.7+0.85*0.3=0.92, posting_date 0.9*0.8=0.72.
		assert.Equal(t, catalog.EntryDate, best.Field)
	})

	t.Run("ties break on field code", func(t *testing.T) {
		best, ok := r.Rank(
			[]Candidate{
				{Field: catalog.DebitAmount, Confidence: 0.9, Source: SourceExact},
				{Field: catalog.CreditAmount, Confidence: 0.9, Source: SourceExact},
			},
			nil,
		)

		require.True(t, ok)
		assert.Equal(t, catalog.CreditAmount, best.Field)
	})

	t.Run("confidence is capped at one", func(t *testing.T) {
		best, ok := r.Rank(
			[]Candidate{{Field: catalog.Amount, Confidence: 1.0, Source: SourceExact}},
			map[catalog.Code]float64{catalog.Amount: 1.0},
		)
		require.True(t, ok)
		assert.LessOrEqual(t, best.Confidence, 1.0)
	})
}

func TestIsHeaderDescription(t *testing.T) {
	tests := []struct {
		column string
		want   bool
	}{
		{"Descripción Cabecera", true},
		{"Descripcion Cabecera", true},
		{"Header Description", true},
		{"cabecera_descripcion", true},
		{"Cabecera", false},
		{"Descripción", false},
		{"Concepto", false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeaderDescription(tt.column))
		})
	}
}
