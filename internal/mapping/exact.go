package mapping

import (
	"sort"
	"strings"

	"github.com/asanchezr/ledgermap/internal/catalog"
)

// Synonym match confidence tiers. An ERP-scoped hit is worth more than a
// cross-ERP hit, which is worth more than matching the canonical code itself.
const (
	erpMatchBase        = 0.95
	erpMatchScale       = 0.05
	anyERPMatchBase     = 0.85
	anyERPMatchScale    = 0.10
	codeMatchConfidence = 0.90
)

// problematicPrefixes are generic name prefixes that flip the meaning of a
// column: "FechaProveedor" is a date, not a vendor, even though "proveedor"
// is a substring.
var problematicPrefixes = []string{"fecha", "numero", "codigo", "tipo", "descripcion"}

// ExactMatcher looks a column name up in the synonym catalog, preferring the
// hinted ERP's synonym set over the rest.
type ExactMatcher struct {
	catalog *catalog.Catalog
	norm    *Normalizer
}

func NewExactMatcher(cat *catalog.Catalog, norm *Normalizer) *ExactMatcher {
	if norm == nil {
		norm = NewNormalizer()
	}
	return &ExactMatcher{catalog: cat, norm: norm}
}

// Find returns every canonical field whose synonym set contains columnName,
// best confidence per field, sorted by descending confidence. erpHint may
// be empty.
func (m *ExactMatcher) Find(columnName, erpHint string) []Candidate {
	normalized := m.norm.Normalize(columnName)
	if normalized == "" {
		return nil
	}

	best := make(map[catalog.Code]float64)
	record := func(code catalog.Code, confidence float64) {
		if confidence > best[code] {
			best[code] = confidence
		}
	}

	for _, code := range catalog.Codes() {
		if erpHint != "" {
			for _, syn := range m.catalog.SynonymsFor(code, erpHint) {
				if normalized != m.norm.Normalize(syn.Name) {
					continue
				}
				if m.isProblematicPartialMatch(columnName, syn.Name) {
					continue
				}
				record(code, min(erpMatchBase+syn.ConfidenceBoost*erpMatchScale, 1.0))
			}
		}

		for _, syn := range m.catalog.AllSynonyms(code) {
			if normalized != m.norm.Normalize(syn.Name) {
				continue
			}
			if m.isProblematicPartialMatch(columnName, syn.Name) {
				continue
			}
			record(code, min(anyERPMatchBase+syn.ConfidenceBoost*anyERPMatchScale, 1.0))
		}

		if normalized == m.norm.Normalize(string(code)) {
			record(code, codeMatchConfidence)
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for code, confidence := range best {
		candidates = append(candidates, Candidate{Field: code, Confidence: confidence, Source: SourceExact})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Field < candidates[j].Field
	})
	return candidates
}

// isProblematicPartialMatch rejects a synonym that only matches as a strict
// substring of the column name when the column starts with a generic prefix
// that signals a different field.
func (m *ExactMatcher) isProblematicPartialMatch(columnName, synonymName string) bool {
	columnLower := strings.ToLower(columnName)
	synonymLower := strings.ToLower(synonymName)

	if columnLower == synonymLower {
		return false
	}
	if !strings.Contains(columnLower, synonymLower) {
		return false
	}
	for _, prefix := range problematicPrefixes {
		if strings.HasPrefix(columnLower, prefix) && !strings.Contains(prefix, synonymLower) {
			return true
		}
	}
	return false
}
