package mapping

import (
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/asanchezr/ledgermap/internal/balance"
	"github.com/asanchezr/ledgermap/internal/catalog"
	"github.com/asanchezr/ledgermap/internal/table"
	"github.com/asanchezr/ledgermap/pkg/money"
)

const (
	// reassignMargin is how much higher a new proposal's confidence must be
	// to displace an incumbent claim.
	reassignMargin = 0.2

	// amountClaimFloor is the minimum recorded confidence an amount claim
	// needs before the balance tie-break will trust it.
	amountClaimFloor = 0.75

	// balanceScoreMargin is the score difference below which two candidate
	// identifier columns are considered tied.
	balanceScoreMargin = 0.1
)

// amountIndicators flag a column name as money-bearing for the
// better-amount-candidate reassignment rule.
var amountIndicators = []string{"saldo", "balance", "importe", "amount", "total"}

// defaultSpecificity ranks column names per field by keyword hits. The
// tables are Spanish-biased configuration data and can be overridden.
var defaultSpecificity = map[catalog.Code][]string{
	catalog.Amount:          {"saldo", "balance", "importe", "amount"},
	catalog.DebitAmount:     {"debe", "debit"},
	catalog.CreditAmount:    {"haber", "credit"},
	catalog.JournalEntryID:  {"asiento", "journal"},
	catalog.PostingDate:     {"fecha", "date"},
	catalog.GLAccountNumber: {"cuenta", "account"},
	catalog.GLAccountName:   {"nombre", "name"},
	catalog.VendorID:        {"proveedor", "vendor", "supplier"},
}

// Stats counts what happened during a resolution session.
type Stats struct {
	Claims              int
	Reassignments       int
	ConflictsKept       int
	ForcedMappings      int
	BalanceResolutions  int
	BalanceFallbacks    int
	JournalIDCandidates int
}

// Resolver enforces the one-field-one-column invariant over a session. It
// owns the bidirectional claim table; every mutation goes through Resolve
// or Force, sequentially. Not safe for concurrent use.
type Resolver struct {
	fieldToColumn map[catalog.Code]string
	columnToField map[string]catalog.Code
	confidences   map[string]float64
	sources       map[string]Source

	specificity map[catalog.Code][]string
	oracle      *balance.Validator
	data        *table.Table
	logger      *slog.Logger

	outcomes []Outcome
	stats    Stats
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSpecificity replaces the per-field name-specificity keyword tables.
func WithSpecificity(tables map[catalog.Code][]string) ResolverOption {
	return func(r *Resolver) {
		if tables != nil {
			r.specificity = tables
		}
	}
}

// WithBalanceOracle enables the balance-driven tie-break for the journal
// entry id field. The full table is needed so candidate groupings can be
// summed over every row, not just the analysis sample.
func WithBalanceOracle(oracle *balance.Validator, data *table.Table) ResolverOption {
	return func(r *Resolver) {
		r.oracle = oracle
		r.data = data
	}
}

func NewResolver(logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		fieldToColumn: make(map[catalog.Code]string),
		columnToField: make(map[string]catalog.Code),
		confidences:   make(map[string]float64),
		sources:       make(map[string]Source),
		specificity:   defaultSpecificity,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve offers one candidate for one column and settles any conflict with
// the current claim table. Returns the accepted candidate, or false when
// the column stays unmapped. Called once per column, in priority order.
func (r *Resolver) Resolve(columnName string, proposed Candidate, samples []string) (Candidate, bool) {
	if proposed.Field == catalog.JournalEntryID {
		r.stats.JournalIDCandidates++
	}

	existingColumn, claimed := r.fieldToColumn[proposed.Field]
	if !claimed {
		r.claim(columnName, proposed)
		return proposed, true
	}
	existingConfidence := r.confidences[existingColumn]

	if proposed.Field == catalog.JournalEntryID && r.oracle != nil && r.data != nil {
		if winner, tied, ok := r.resolveJournalIDByBalance(existingColumn, existingConfidence, columnName, proposed.Confidence); ok {
			if winner != existingColumn {
				reason := ReasonBalanceScore
				if tied {
					reason = ReasonBalanceConfidence
				}
				resolved := Candidate{Field: proposed.Field, Confidence: proposed.Confidence, Source: SourceBalance}
				r.reassign(columnName, existingColumn, resolved, reason)
				r.stats.BalanceResolutions++
				return resolved, true
			}
			r.logger.Debug("existing journal id mapping confirmed by balance",
				slog.String("column", existingColumn))
			r.recordKept(proposed.Field, existingColumn, columnName, existingConfidence)
			return Candidate{}, false
		}
		r.stats.BalanceFallbacks++
		r.logger.Debug("balance tie-break inconclusive, falling back to confidence",
			slog.String("existing", existingColumn), slog.String("proposed", columnName))
	}

	switch {
	case proposed.Confidence > existingConfidence+reassignMargin:
		r.reassign(columnName, existingColumn, proposed, ReasonHigherConfidence)
		return proposed, true

	case proposed.Field == catalog.Amount && isBetterAmountCandidate(columnName, samples):
		r.reassign(columnName, existingColumn, proposed, ReasonBetterAmount)
		return proposed, true

	case r.hasMoreSpecificName(columnName, existingColumn, proposed.Field):
		r.reassign(columnName, existingColumn, proposed, ReasonMoreSpecificName)
		return proposed, true

	default:
		r.stats.ConflictsKept++
		r.recordKept(proposed.Field, existingColumn, columnName, existingConfidence)
		return Candidate{}, false
	}
}

// Force claims a field for a column bypassing ranking and conflict
// resolution. It still refuses when the field is already taken.
func (r *Resolver) Force(columnName string, field catalog.Code, confidence float64) (Candidate, bool) {
	if _, claimed := r.fieldToColumn[field]; claimed {
		r.logger.Debug("forced mapping refused, field already claimed",
			slog.String("field", string(field)), slog.String("column", columnName))
		return Candidate{}, false
	}
	forced := Candidate{Field: field, Confidence: confidence, Source: SourceForced}
	r.claim(columnName, forced)
	r.stats.ForcedMappings++
	return forced, true
}

// Reclassify moves an existing claim from one field to another without
// changing the owning column. Used by the entry-date post-pass. Fails when
// the target field is already claimed or the column does not own source.
func (r *Resolver) Reclassify(columnName string, from, to catalog.Code) bool {
	if r.fieldToColumn[from] != columnName {
		return false
	}
	if _, taken := r.fieldToColumn[to]; taken {
		return false
	}
	delete(r.fieldToColumn, from)
	r.fieldToColumn[to] = columnName
	r.columnToField[columnName] = to
	return true
}

// Claimed reports the column currently owning a field.
func (r *Resolver) Claimed(field catalog.Code) (string, bool) {
	column, ok := r.fieldToColumn[field]
	return column, ok
}

// Mapping returns the final column-to-field assignment.
func (r *Resolver) Mapping() map[string]catalog.Code {
	out := make(map[string]catalog.Code, len(r.columnToField))
	for column, field := range r.columnToField {
		out[column] = field
	}
	return out
}

// Confidence returns the recorded confidence for a mapped column.
func (r *Resolver) Confidence(columnName string) (float64, bool) {
	c, ok := r.confidences[columnName]
	return c, ok
}

// SourceOf returns the signal source recorded for a mapped column.
func (r *Resolver) SourceOf(columnName string) (Source, bool) {
	s, ok := r.sources[columnName]
	return s, ok
}

// Outcomes returns the audit trail of every conflict decision.
func (r *Resolver) Outcomes() []Outcome {
	return r.outcomes
}

// Stats returns session counters.
func (r *Resolver) Stats() Stats {
	return r.stats
}

func (r *Resolver) claim(columnName string, c Candidate) {
	r.fieldToColumn[c.Field] = columnName
	r.columnToField[columnName] = c.Field
	r.confidences[columnName] = c.Confidence
	r.sources[columnName] = c.Source
	r.stats.Claims++
}

// reassign releases the loser's claim entirely before granting the new
// one. The loser does not re-enter the queue; it stays unmapped unless a
// later column conflict happens to free a field it can take.
func (r *Resolver) reassign(columnName, existingColumn string, c Candidate, reason string) {
	delete(r.fieldToColumn, c.Field)
	delete(r.columnToField, existingColumn)
	delete(r.confidences, existingColumn)
	delete(r.sources, existingColumn)

	r.claim(columnName, c)
	r.stats.Reassignments++
	r.outcomes = append(r.outcomes, Outcome{
		Field:      c.Field,
		Winner:     columnName,
		Loser:      existingColumn,
		Confidence: c.Confidence,
		Reason:     reason,
	})
	r.logger.Debug("mapping reassigned",
		slog.String("field", string(c.Field)),
		slog.String("winner", columnName),
		slog.String("loser", existingColumn),
		slog.String("reason", reason))
}

func (r *Resolver) recordKept(field catalog.Code, winner, loser string, confidence float64) {
	r.outcomes = append(r.outcomes, Outcome{
		Field:      field,
		Winner:     winner,
		Loser:      loser,
		Confidence: confidence,
		Reason:     ReasonKeptExisting,
	})
}

// resolveJournalIDByBalance tests which candidate column produces the more
// balanced grouping of the already-mapped amount columns. tied reports that
// the scores were too close and confidence decided instead. Returns ok false
// when the tie-break cannot run, in which case the generic rules apply.
func (r *Resolver) resolveJournalIDByBalance(existingColumn string, existingConfidence float64, newColumn string, newConfidence float64) (winner string, tied, ok bool) {
	amountClaims := r.reliableAmountClaims()
	if len(amountClaims) == 0 {
		return "", false, false
	}

	existingScore, scored := r.scoreCandidate(existingColumn, amountClaims)
	if !scored {
		return "", false, false
	}
	newScore, scored := r.scoreCandidate(newColumn, amountClaims)
	if !scored {
		return "", false, false
	}

	r.logger.Debug("balance tie-break scores",
		slog.String("existing", existingColumn), slog.Float64("existing_score", existingScore),
		slog.String("proposed", newColumn), slog.Float64("proposed_score", newScore))

	if math.Abs(existingScore-newScore) < balanceScoreMargin {
		if newConfidence > existingConfidence {
			return newColumn, true, true
		}
		return existingColumn, true, true
	}
	if newScore > existingScore {
		return newColumn, false, true
	}
	return existingColumn, false, true
}

// reliableAmountClaims collects already-claimed amount fields whose recorded
// confidence clears the floor. Low-confidence amount mappings would make the
// oracle score meaningless.
func (r *Resolver) reliableAmountClaims() map[catalog.Code]string {
	claims := make(map[catalog.Code]string, 3)
	for _, field := range []catalog.Code{catalog.DebitAmount, catalog.CreditAmount, catalog.Amount} {
		column, ok := r.fieldToColumn[field]
		if !ok {
			continue
		}
		if r.confidences[column] < amountClaimFloor {
			r.logger.Debug("amount claim below balance floor, skipped",
				slog.String("field", string(field)), slog.String("column", column))
			continue
		}
		claims[field] = column
	}
	return claims
}

// scoreCandidate groups every row of the full table by the candidate column
// and scores debit/credit balance per group.
func (r *Resolver) scoreCandidate(candidateColumn string, amountClaims map[catalog.Code]string) (float64, bool) {
	groups := r.data.Lookup(candidateColumn)
	if groups == nil {
		return 0, false
	}

	debits := r.parseAmounts(amountClaims[catalog.DebitAmount], r.data.RowCount())
	credits := r.parseAmounts(amountClaims[catalog.CreditAmount], r.data.RowCount())

	// A lone signed amount column is split into synthetic debit and credit
	// series by sign.
	if allZero(debits) && allZero(credits) {
		if amountColumn, mapped := amountClaims[catalog.Amount]; mapped {
			amounts := r.parseAmounts(amountColumn, r.data.RowCount())
			debits, credits = balance.SplitBySign(amounts)
		}
	}

	report := r.oracle.Validate(groups.Values, debits, credits)
	return report.Score, true
}

func (r *Resolver) parseAmounts(columnName string, rows int) []decimal.Decimal {
	out := make([]decimal.Decimal, rows)
	if columnName == "" {
		return out
	}
	column := r.data.Lookup(columnName)
	if column == nil {
		return out
	}
	for i, raw := range column.Values {
		if i >= rows {
			break
		}
		out[i] = money.ParseOrZero(raw)
	}
	return out
}

func (r *Resolver) hasMoreSpecificName(newColumn, existingColumn string, field catalog.Code) bool {
	keywords, ok := r.specificity[field]
	if !ok {
		return false
	}
	newLower := strings.ToLower(newColumn)
	existingLower := strings.ToLower(existingColumn)

	newScore, existingScore := 0, 0
	for _, kw := range keywords {
		if strings.Contains(newLower, kw) {
			newScore++
		}
		if strings.Contains(existingLower, kw) {
			existingScore++
		}
	}
	return newScore > existingScore
}

// isBetterAmountCandidate checks both the name and the numeric spread of a
// column challenging an existing generic amount claim.
func isBetterAmountCandidate(columnName string, samples []string) bool {
	if !containsAny(strings.ToLower(columnName), amountIndicators) {
		return false
	}

	numbers := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v, ok := parseFloat(s); ok {
			numbers = append(numbers, v)
		}
	}
	if len(numbers) == 0 {
		return false
	}
	var sum float64
	for _, v := range numbers {
		sum += v
	}
	mean := sum / float64(len(numbers))
	return stddev(numbers, mean) > 1 && math.Abs(mean) > 1
}

func allZero(values []decimal.Decimal) bool {
	for _, v := range values {
		if !v.IsZero() {
			return false
		}
	}
	return true
}
