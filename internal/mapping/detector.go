package mapping

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/asanchezr/ledgermap/internal/balance"
	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
)

const (
	defaultSampleSize = 100

	// entryDateReclassFloor is the confidence an entry_date claim needs
	// before the same-year post-pass will promote it to posting_date.
	entryDateReclassFloor = 0.8

	maxSuggestions = 3
)

// priorityBuckets orders columns for processing by how specific their name
// looks. Amount columns go first so they are claimed before the balance
// tie-break for the entry identifier needs them; vague columns go last so
// they cannot grab scarce canonical slots on content heuristics alone.
var priorityBuckets = []struct {
	tokens []string
	rank   int
}{
	{[]string{"saldo", "balance", "importe", "amount"}, 1},
	{[]string{"debe", "debit"}, 1},
	{[]string{"haber", "credit"}, 1},
	{[]string{"fecha", "date"}, 2},
	{[]string{"asiento", "journal"}, 2},
	{[]string{"cuenta", "account"}, 2},
	{[]string{"cabecera", "header"}, 3},
	{[]string{"concepto", "concept"}, 3},
	{[]string{"descripcion", "description"}, 4},
	{[]string{"doc", "documento", "numero"}, 5},
	{[]string{"proveedor", "vendor", "supplier"}, 5},
	{[]string{"nombre", "name"}, 5},
}

const defaultPriority = 6

// Result is the outcome of one detection session.
type Result struct {
	ERPSystem   string
	Mappings    map[string]catalog.Code
	Confidences map[string]float64
	Sources     map[string]Source
	Unmapped    []string
	Suggestions map[string][]string
	Outcomes    []Outcome
	Stats       Stats
}

// Detector drives column-by-column field detection over one input table.
type Detector struct {
	catalog     *catalog.Catalog
	erpDetector *ERPDetector
	logger      *slog.Logger
	sampleSize  int
	threshold   float64
	tolerance   float64
	specificity map[catalog.Code][]string
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithSampleSize bounds how many values per column feed content analysis.
func WithSampleSize(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMinConfidence sets the floor below which columns stay unmapped.
func WithMinConfidence(c float64) DetectorOption {
	return func(d *Detector) {
		if c > 0 {
			d.threshold = c
		}
	}
}

// WithBalanceTolerance sets the absolute tolerance of the balance oracle.
func WithBalanceTolerance(t float64) DetectorOption {
	return func(d *Detector) {
		if t > 0 {
			d.tolerance = t
		}
	}
}

// WithSpecificityTables overrides the per-field name-specificity keywords
// used in conflict resolution.
func WithSpecificityTables(tables map[catalog.Code][]string) DetectorOption {
	return func(d *Detector) {
		d.specificity = tables
	}
}

func NewDetector(cat *catalog.Catalog, logger *slog.Logger, opts ...DetectorOption) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{
		catalog:     cat,
		erpDetector: NewERPDetector(),
		logger:      logger,
		sampleSize:  defaultSampleSize,
		threshold:   minConfidence,
		tolerance:   balance.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect maps every column of the table to at most one canonical field.
// erpHint may be empty, in which case the ERP is auto-detected from the
// column names. Detection is deterministic: the same table, hint and
// catalog always produce the same result.
func (d *Detector) Detect(t *table.Table, erpHint string) *Result {
	result := &Result{
		Mappings:    make(map[string]catalog.Code),
		Confidences: make(map[string]float64),
		Sources:     make(map[string]Source),
		Suggestions: make(map[string][]string),
	}
	if t == nil || len(t.Columns) == 0 {
		d.logger.Warn("detection called with empty table")
		return result
	}

	erp := erpHint
	if erp == "" {
		erp = d.erpDetector.Detect(t.ColumnNames())
		d.logger.Info("erp auto-detected", slog.String("erp", erp))
	}
	result.ERPSystem = erp

	norm := NewNormalizer()
	exact := NewExactMatcher(d.catalog, norm)
	analyzer := NewContentAnalyzer()
	ranker := NewRanker(d.threshold)

	resolverOpts := []ResolverOption{
		WithBalanceOracle(balance.NewValidator(d.tolerance), t),
	}
	if d.specificity != nil {
		resolverOpts = append(resolverOpts, WithSpecificity(d.specificity))
	}
	resolver := NewResolver(d.logger, resolverOpts...)

	for _, columnName := range prioritizeColumns(t.ColumnNames()) {
		column := t.Lookup(columnName)
		samples := column.Sample(d.sampleSize)

		if IsHeaderDescription(columnName) {
			if forced, ok := resolver.Force(columnName, catalog.Description, forcedConfidence); ok {
				d.record(result, columnName, forced)
				continue
			}
		}

		exactMatches := exact.Find(columnName, erp)
		if translated := norm.Translate(columnName); translated != columnName {
			exactMatches = mergeCandidates(exactMatches, exact.Find(translated, erp))
		}
		contentScores := analyzer.Analyze(columnName, samples)

		candidate, ok := ranker.Rank(exactMatches, contentScores)
		if !ok {
			continue
		}
		if resolved, accepted := resolver.Resolve(columnName, candidate, samples); accepted {
			d.record(result, columnName, resolved)
		}
	}

	d.reclassifyEntryDate(resolver, t, result)

	for _, columnName := range t.ColumnNames() {
		if _, mapped := result.Mappings[columnName]; mapped {
			continue
		}
		result.Unmapped = append(result.Unmapped, columnName)
		if suggestions := d.suggest(columnName); len(suggestions) > 0 {
			result.Suggestions[columnName] = suggestions
		}
	}

	result.Outcomes = resolver.Outcomes()
	result.Stats = resolver.Stats()
	if result.Stats.JournalIDCandidates > 1 {
		d.logger.Info("multiple journal entry id candidates reduced to one",
			slog.Int("candidates", result.Stats.JournalIDCandidates))
	}
	d.logger.Info("field detection finished",
		slog.String("erp", erp),
		slog.Int("columns", len(t.Columns)),
		slog.Int("mapped", len(result.Mappings)),
		slog.Int("unmapped", len(result.Unmapped)))
	return result
}

func (d *Detector) record(result *Result, columnName string, c Candidate) {
	result.Mappings[columnName] = c.Field
	result.Confidences[columnName] = c.Confidence
	result.Sources[columnName] = c.Source

	// A reassignment may have displaced an earlier column; its record in
	// the result must be dropped so the mapping stays injective.
	for column, field := range result.Mappings {
		if column != columnName && field == c.Field {
			delete(result.Mappings, column)
			delete(result.Confidences, column)
			delete(result.Sources, column)
		}
	}
}

// reclassifyEntryDate promotes a lone entry_date claim to posting_date when
// every value in the column falls in the same calendar year. Multi-year logs
// keep their entry_date reading.
func (d *Detector) reclassifyEntryDate(resolver *Resolver, t *table.Table, result *Result) {
	column, claimed := resolver.Claimed(catalog.EntryDate)
	if !claimed {
		return
	}
	if _, taken := resolver.Claimed(catalog.PostingDate); taken {
		return
	}
	confidence, _ := resolver.Confidence(column)
	if confidence < entryDateReclassFloor {
		return
	}
	values := t.Lookup(column)
	if values == nil || !sameCalendarYear(values.NonEmpty()) {
		return
	}
	if resolver.Reclassify(column, catalog.EntryDate, catalog.PostingDate) {
		result.Mappings[column] = catalog.PostingDate
		d.logger.Info("entry date reclassified to posting date, single calendar year",
			slog.String("column", column))
	}
}

// suggest offers near-miss synonym names for a column that stayed unmapped.
func (d *Detector) suggest(columnName string) []string {
	names := make([]string, 0, 64)
	for _, code := range catalog.Codes() {
		for _, syn := range d.catalog.AllSynonyms(code) {
			names = append(names, syn.Name)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(columnName, names)
	sort.Stable(ranks)

	suggestions := make([]string, 0, maxSuggestions)
	seen := make(map[string]struct{}, maxSuggestions)
	for _, rank := range ranks {
		if _, dup := seen[rank.Target]; dup {
			continue
		}
		seen[rank.Target] = struct{}{}
		suggestions = append(suggestions, rank.Target)
		if len(suggestions) >= maxSuggestions {
			break
		}
	}
	return suggestions
}

// prioritizeColumns buckets columns by name specificity, preserving input
// order within each bucket.
func prioritizeColumns(columns []string) []string {
	ranked := make([]string, len(columns))
	copy(ranked, columns)

	rankOf := func(column string) int {
		lower := strings.ToLower(column)
		for _, bucket := range priorityBuckets {
			for _, token := range bucket.tokens {
				if strings.Contains(lower, token) {
					return bucket.rank
				}
			}
		}
		return defaultPriority
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankOf(ranked[i]) < rankOf(ranked[j])
	})
	return ranked
}

func mergeCandidates(a, b []Candidate) []Candidate {
	if len(b) == 0 {
		return a
	}
	best := make(map[catalog.Code]Candidate, len(a)+len(b))
	for _, c := range a {
		if existing, ok := best[c.Field]; !ok || c.Confidence > existing.Confidence {
			best[c.Field] = c
		}
	}
	for _, c := range b {
		if existing, ok := best[c.Field]; !ok || c.Confidence > existing.Confidence {
			best[c.Field] = c
		}
	}
	merged := make([]Candidate, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].Field < merged[j].Field
	})
	return merged
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// sameCalendarYear reports whether every value carries the same four-digit
// year. Values are tried against the known date layouts first, then a bare
// year extraction.
func sameCalendarYear(values []string) bool {
	if len(values) == 0 {
		return false
	}
	year := 0
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		y := 0
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				y = t.Year()
				break
			}
		}
		if y == 0 {
			match := yearPattern.FindString(v)
			if match == "" {
				return false
			}
			y, _ = strconv.Atoi(match)
		}
		if year == 0 {
			year = y
		} else if y != year {
			return false
		}
	}
	return true
}
