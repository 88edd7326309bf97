package mapping

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
)

// datePatterns is the battery of date literal shapes seen across ERP
// exports: ISO, European and American orderings, dotted German style,
// compact SAP YYYYMMDD, month names in English and Spanish, and
// timestamp variants.
var datePatterns = []*regexp.Regexp{
	// Four-digit years
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
	regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}$`),
	regexp.MustCompile(`^\d{8}$`),

	// Two-digit years
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`),
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2}$`),
	regexp.MustCompile(`^\d{6}$`),

	// Month names, English and Spanish
	regexp.MustCompile(`(?i)^\d{1,2}[-\s]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[-\s]?\d{2,4}$`),
	regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[-\s]?\d{1,2}[-\s]?\d{2,4}$`),
	regexp.MustCompile(`(?i)^\d{2,4}[-\s]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[-\s]?\d{1,2}$`),
	regexp.MustCompile(`(?i)^\d{1,2}[-\s]?(january|february|march|april|may|june|july|august|september|october|november|december)[-\s]?\d{2,4}$`),
	regexp.MustCompile(`(?i)^\d{1,2}[-\s]?(ene|feb|mar|abr|may|jun|jul|ago|sep|oct|nov|dic)[-\s]?\d{2,4}$`),
	regexp.MustCompile(`(?i)^\d{1,2}[-\s]?(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)[-\s]?\d{2,4}$`),
	regexp.MustCompile(`(?i)^\w{3}\s\d{1,2},?\s\d{4}$`),
	regexp.MustCompile(`^\d{1,2}\s\w{3}\s\d{4}$`),

	// With time component
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}\s\d{1,2}:\d{2}(:\d{2})?$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}\s\d{1,2}:\d{2}(:\d{2})?$`),
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}\s\d{1,2}:\d{2}(:\d{2})?$`),
	regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}\s\d{1,2}:\d{2}(:\d{2})?$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+$`),

	// ISO 8601 and technical
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{2}:\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{3}$`),
	regexp.MustCompile(`^\d{10}$`),
	regexp.MustCompile(`^\d{13}$`),

	// Month-and-year only
	regexp.MustCompile(`^\d{1,2}/\d{4}$`),
	regexp.MustCompile(`^\d{4}/\d{1,2}$`),
	regexp.MustCompile(`^\d{4}-\d{1,2}$`),

	// Alternative separators
	regexp.MustCompile(`^\d{1,2}\s\d{1,2}\s\d{2,4}$`),
	regexp.MustCompile(`^\d{1,2}_\d{1,2}_\d{2,4}$`),
	regexp.MustCompile(`^\d{1,2}\|\d{1,2}\|\d{2,4}$`),
}

// dateLayouts is the permissive fallback when no literal pattern matches.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	time.RFC3339,
	"20060102",
}

// namePattern is one entry of the field-name substring table. First match
// wins and stops further checks for the column.
type namePattern struct {
	substring  string
	field      catalog.Code
	confidence float64
}

var namePatterns = []namePattern{
	{"saldo", catalog.Amount, 0.95},
	{"balance", catalog.Amount, 0.95},
	{"importe", catalog.Amount, 0.9},
	{"total", catalog.Amount, 0.85},
	{"debe", catalog.DebitAmount, 0.95},
	{"haber", catalog.CreditAmount, 0.95},
	{"debit", catalog.DebitAmount, 0.95},
	{"credit", catalog.CreditAmount, 0.95},
	{"fecha", catalog.PostingDate, 0.9},
	{"date", catalog.PostingDate, 0.9},
	{"asiento", catalog.JournalEntryID, 0.9},
	{"journal", catalog.JournalEntryID, 0.9},
	{"cuenta", catalog.GLAccountNumber, 0.9},
	{"account", catalog.GLAccountNumber, 0.9},
	{"año", catalog.FiscalYear, 0.9},
	{"year", catalog.FiscalYear, 0.9},
	{"documento", catalog.DocumentNumber, 0.8},
	{"doc", catalog.DocumentNumber, 0.8},
	{"numero", catalog.DocumentNumber, 0.7},
	{"num", catalog.DocumentNumber, 0.7},
	{"periodo", catalog.PeriodNumber, 0.9},
	{"period", catalog.PeriodNumber, 0.9},
	{"preparado", catalog.PreparedBy, 0.8},
	{"prepared", catalog.PreparedBy, 0.8},
	{"entrada", catalog.EntryDate, 0.8},
	{"entry", catalog.EntryDate, 0.8},
	{"proveedor", catalog.VendorID, 0.7},
	{"vendor", catalog.VendorID, 0.7},
	{"supplier", catalog.VendorID, 0.7},
}

var vendorTokens = []string{"proveedor", "vendor", "supplier", "fornecedor", "fournisseur", "fornitore", "lieferant"}

var accountNameTokens = []string{"nombre", "name", "denominacion", "description", "desc", "titel", "titre", "titolo"}

var accountTokens = []string{"cuenta", "account", "conto", "compte", "konto"}

// ContentAnalyzer infers candidate fields for a column purely from a sample
// of its values plus the column name. Sub-analyses run in a fixed order and
// are unioned keeping the maximum confidence per field, so the result is a
// pure function of the input.
type ContentAnalyzer struct{}

func NewContentAnalyzer() *ContentAnalyzer {
	return &ContentAnalyzer{}
}

// Analyze returns a field-to-confidence map. Empty samples yield an empty
// map; a sub-analysis that fails to parse values simply contributes nothing.
func (a *ContentAnalyzer) Analyze(columnName string, samples []string) map[catalog.Code]float64 {
	clean := make([]string, 0, len(samples))
	for _, s := range samples {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	if len(clean) == 0 {
		return map[catalog.Code]float64{}
	}

	result := make(map[catalog.Code]float64)
	merge := func(partial map[catalog.Code]float64) {
		for code, confidence := range partial {
			if !catalog.IsCanonical(code) {
				continue
			}
			if confidence > result[code] {
				result[code] = confidence
			}
		}
	}

	merge(a.analyzeNumeric(clean))
	merge(a.analyzeText(columnName, clean))
	merge(a.analyzeDates(clean))
	merge(a.analyzeVendorID(columnName, clean))
	merge(a.analyzeAccountName(columnName, clean))
	merge(a.analyzeNamePatterns(columnName))
	return result
}

func (a *ContentAnalyzer) analyzeNumeric(samples []string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)

	numbers := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := parseFloat(s); ok {
			numbers = append(numbers, v)
		}
	}
	if len(numbers) == 0 {
		return analysis
	}
	if float64(len(numbers))/float64(len(samples)) < 0.7 {
		return analysis
	}

	var zeroCount, positiveCount, negativeCount int
	minVal, maxVal := numbers[0], numbers[0]
	var sum float64
	for _, v := range numbers {
		switch {
		case v == 0:
			zeroCount++
		case v > 0:
			positiveCount++
		default:
			negativeCount++
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += v
	}
	mean := sum / float64(len(numbers))
	std := stddev(numbers, mean)
	uniqueRatio := table.UniqueRatio(floatStrings(numbers))

	switch {
	case math.Abs(mean) > 1 && std > 1:
		// Monetary magnitude. A third or more exact zeros points at a
		// one-sided debit or credit column; otherwise a generic amount.
		zeroRatio := float64(zeroCount) / float64(len(numbers))
		if zeroRatio > 0.3 {
			if positiveCount > negativeCount {
				analysis[catalog.DebitAmount] = 0.8
			} else {
				analysis[catalog.CreditAmount] = 0.7
			}
		} else {
			analysis[catalog.Amount] = 0.9
		}

	case maxVal <= 1000 && std < 10:
		if uniqueRatio < 0.2 {
			analysis[catalog.DocumentNumber] = 0.7
		}

	case minVal >= 1900 && maxVal <= 2100:
		if uniqueCount(numbers) <= 5 {
			analysis[catalog.FiscalYear] = 0.9
		}

	case maxVal <= 100 && minVal >= 1:
		if consecutiveRunRatio(numbers) > 0.3 {
			analysis[catalog.LineNumber] = 0.8
		}

	case float64(uniqueCount(numbers)) < float64(len(numbers))*0.7:
		analysis[catalog.JournalEntryID] = 0.7

	case maxVal <= 999999 && minVal >= 1:
		if uniqueRatio > 0.8 {
			analysis[catalog.VendorID] = 0.6
		}
	}

	return analysis
}

func (a *ContentAnalyzer) analyzeText(columnName string, samples []string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)

	// Numbers rendered as strings are not text.
	head := samples
	if len(head) > 10 {
		head = head[:10]
	}
	numericLike := 0
	for _, s := range head {
		if _, ok := parseFloat(s); ok {
			numericLike++
		}
	}
	if float64(numericLike) > float64(len(head))*0.8 {
		return analysis
	}

	uniqueRatio := table.UniqueRatio(samples)
	avgLength := table.AvgLen(samples)
	nameLower := strings.ToLower(columnName)

	switch {
	case strings.Contains(nameLower, "descripcion") || strings.Contains(nameLower, "description"):
		if uniqueRatio > 0.7 {
			analysis[catalog.LineDescription] = 0.8
		} else {
			analysis[catalog.Description] = 0.7
		}
	case strings.Contains(nameLower, "concepto") || strings.Contains(nameLower, "concept"):
		analysis[catalog.Description] = 0.8
	case avgLength > 10 && uniqueRatio > 0.5:
		analysis[catalog.LineDescription] = 0.6
	case avgLength > 5 && uniqueRatio < 0.3:
		analysis[catalog.Description] = 0.5
	}

	return analysis
}

func (a *ContentAnalyzer) analyzeDates(samples []string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)

	checked := len(samples)
	if checked > 20 {
		checked = 20
	}
	if checked == 0 {
		return analysis
	}

	dateLike := 0
	for _, raw := range samples[:checked] {
		if looksLikeDate(strings.TrimSpace(raw)) {
			dateLike++
		}
	}

	// posting_date and entry_date are proposed together; the two are easy
	// to confuse and a later pass disambiguates them.
	ratio := float64(dateLike) / float64(checked)
	switch {
	case ratio >= 0.8:
		analysis[catalog.PostingDate] = 0.9
		analysis[catalog.EntryDate] = 0.85
	case ratio >= 0.6:
		analysis[catalog.PostingDate] = 0.7
		analysis[catalog.EntryDate] = 0.65
	case ratio >= 0.4:
		analysis[catalog.PostingDate] = 0.5
		analysis[catalog.EntryDate] = 0.45
	}

	return analysis
}

func (a *ContentAnalyzer) analyzeVendorID(columnName string, samples []string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)
	nameLower := strings.ToLower(columnName)

	if !containsAny(nameLower, vendorTokens) {
		return analysis
	}
	if containsAny(nameLower, []string{"id", "codigo", "code", "num"}) {
		analysis[catalog.VendorID] = 0.9
		return analysis
	}
	if table.AvgLen(samples) <= 15 && table.UniqueRatio(samples) > 0.8 {
		analysis[catalog.VendorID] = 0.7
	}
	return analysis
}

func (a *ContentAnalyzer) analyzeAccountName(columnName string, samples []string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)
	nameLower := strings.ToLower(columnName)

	hasNameToken := containsAny(nameLower, accountNameTokens)
	hasAccountToken := containsAny(nameLower, accountTokens)

	switch {
	case hasNameToken && hasAccountToken:
		analysis[catalog.GLAccountName] = 0.9
	case hasNameToken && (strings.Contains(nameLower, "gl") || strings.Contains(nameLower, "mayor")):
		analysis[catalog.GLAccountName] = 0.8
	case hasAccountToken && !containsAny(nameLower, []string{"num", "number", "codigo", "code"}):
		if table.AvgLen(samples) > 10 {
			analysis[catalog.GLAccountName] = 0.7
		}
	}
	return analysis
}

func (a *ContentAnalyzer) analyzeNamePatterns(columnName string) map[catalog.Code]float64 {
	analysis := make(map[catalog.Code]float64)
	nameLower := strings.ToLower(columnName)
	for _, p := range namePatterns {
		if strings.Contains(nameLower, p.substring) {
			analysis[p.field] = p.confidence
			break
		}
	}
	return analysis
}

// looksLikeDate reports whether a single value reads as a date literal.
// Bare digit runs of six or fewer characters are only accepted through an
// explicit pattern, never through the permissive layout fallback, so small
// integers are not misread as dates.
func looksLikeDate(value string) bool {
	if value == "" {
		return false
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}

	stripped := strings.NewReplacer(".", "", "/", "", "-", "").Replace(value)
	if isAllDigits(stripped) && len(value) <= 6 {
		return false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if y := t.Year(); y >= 1900 && y <= 2100 {
				return true
			}
		}
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func uniqueCount(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func floatStrings(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

// consecutiveRunRatio measures how much of the sorted sample increments by
// exactly one, the signature of a line-number column.
func consecutiveRunRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	limit := len(sorted)
	if limit > 20 {
		limit = 20
	}
	consecutive := 0
	for i := 1; i < limit; i++ {
		if sorted[i] == sorted[i-1]+1 {
			consecutive++
		}
	}
	return float64(consecutive) / float64(len(sorted))
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
