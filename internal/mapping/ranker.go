package mapping

import (
	"strings"

	"github.com/asanchezr/ledgermap/internal/catalog"
)

const (
	// minConfidence is the floor below which a column stays unmapped.
	minConfidence = 0.3

	exactWeight      = 0.7
	contentWeight    = 0.3
	contentOnlyScale = 0.8

	forcedConfidence = 0.95
)

// Ranker merges exact synonym matches with content-analysis scores into one
// winning candidate per column.
type Ranker struct {
	threshold float64
}

func NewRanker(threshold float64) *Ranker {
	if threshold <= 0 {
		threshold = minConfidence
	}
	return &Ranker{threshold: threshold}
}

// Rank combines both signal sources and returns the best candidate. Exact
// matches act as the base; a content score reinforces an existing candidate
// at 70/30 weighting, or enters on its own scaled down to 80%. Returns
// false when nothing clears the threshold.
func (r *Ranker) Rank(exact []Candidate, content map[catalog.Code]float64) (Candidate, bool) {
	if len(exact) == 0 && len(content) == 0 {
		return Candidate{}, false
	}

	merged := make(map[catalog.Code]float64, len(exact)+len(content))
	sources := make(map[catalog.Code]Source, len(exact)+len(content))
	for _, c := range exact {
		merged[c.Field] = c.Confidence
		sources[c.Field] = SourceExact
	}
	for code, contentConfidence := range content {
		if !catalog.IsCanonical(code) {
			continue
		}
		if existing, ok := merged[code]; ok {
			merged[code] = min(existing*exactWeight+contentConfidence*contentWeight, 1.0)
			sources[code] = SourceCombined
		} else {
			merged[code] = contentConfidence * contentOnlyScale
			sources[code] = SourceContent
		}
	}

	var best Candidate
	for code, confidence := range merged {
		if confidence > best.Confidence ||
			(confidence == best.Confidence && (best.Field == "" || code < best.Field)) {
			best = Candidate{Field: code, Confidence: confidence, Source: sources[code]}
		}
	}
	if best.Confidence < r.threshold {
		return Candidate{}, false
	}
	return best, true
}

// IsHeaderDescription reports whether a column name carries both a header
// and a description token. Such columns are force-mapped to the header
// description field before ranking runs at all.
func IsHeaderDescription(columnName string) bool {
	nameLower := accentFold.Replace(strings.ToLower(columnName))
	hasHeader := strings.Contains(nameLower, "cabecera") || strings.Contains(nameLower, "header")
	return hasHeader && (strings.Contains(nameLower, "description") || strings.Contains(nameLower, "descripcion"))
}
