package mapping

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/asanchezr/ledgermap/internal/catalog"
)

// erpDetectionThreshold is the minimum share of an ERP's fingerprint tokens
// that must appear among the column names before the ERP is reported.
const erpDetectionThreshold = 0.3

// erpFingerprints are column-name tokens characteristic of each ERP's
// journal export.
var erpFingerprints = map[string][]string{
	"SAP": {
		"belnr", "bukrs", "hkont", "shkzg", "dmbtr", "waers",
		"bldat", "budat", "xblnr", "bschl", "kostl",
	},
	"Oracle": {
		"je_header_id", "je_line_num", "code_combination_id",
		"entered_dr", "entered_cr", "accounted_dr", "accounted_cr",
	},
	"Navision": {
		"document_no", "posting_date", "g_l_account_no",
		"amount_lcy", "debit_amount", "credit_amount",
	},
	"SAGE": {
		"reference", "account_code", "nominal_code",
		"transaction_type", "net_amount", "tax_amount",
	},
	"PeopleSoft": {
		"business_unit", "journal_id", "journal_line",
		"account", "monetary_amount", "statistics_amount",
	},
}

// ERPDetector guesses the source ERP from column-name fingerprints. All
// fingerprint tokens across all ERPs are compiled into a single Aho-Corasick
// state machine, so detection is one pass over the joined column names no
// matter how many tokens are registered.
type ERPDetector struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	owners   [][]string
}

func NewERPDetector() *ERPDetector {
	d := &ERPDetector{}

	erps := make([]string, 0, len(erpFingerprints))
	for erp := range erpFingerprints {
		erps = append(erps, erp)
	}
	sort.Strings(erps)

	index := make(map[string]int)
	for _, erp := range erps {
		for _, token := range erpFingerprints[erp] {
			if i, exists := index[token]; exists {
				d.owners[i] = append(d.owners[i], erp)
				continue
			}
			index[token] = len(d.patterns)
			d.patterns = append(d.patterns, token)
			d.owners = append(d.owners, []string{erp})
		}
	}
	d.matcher = ahocorasick.NewStringMatcher(d.patterns)
	return d
}

// Detect returns the best-scoring ERP for the given column names, or
// Generic_ES when no fingerprint clears the threshold. Deterministic: ties
// break alphabetically.
func (d *ERPDetector) Detect(columnNames []string) string {
	if len(columnNames) == 0 {
		return catalog.GenericES
	}

	lowered := make([]string, len(columnNames))
	for i, name := range columnNames {
		lowered[i] = strings.ToLower(name)
	}
	haystack := strings.Join(lowered, " ")

	hits := make(map[string]int)
	for _, patternIdx := range d.matcher.Match([]byte(haystack)) {
		for _, erp := range d.owners[patternIdx] {
			hits[erp]++
		}
	}
	if len(hits) == 0 {
		return catalog.GenericES
	}

	bestERP := ""
	bestScore := 0.0
	erps := make([]string, 0, len(hits))
	for erp := range hits {
		erps = append(erps, erp)
	}
	sort.Strings(erps)
	for _, erp := range erps {
		score := float64(hits[erp]) / float64(len(erpFingerprints[erp]))
		if score > bestScore {
			bestERP = erp
			bestScore = score
		}
	}
	if bestScore > erpDetectionThreshold {
		return bestERP
	}
	return catalog.GenericES
}
