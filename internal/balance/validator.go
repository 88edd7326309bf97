// Package balance scores how well a candidate identifier column groups
// journal lines into balanced entries (debits equal credits per group).
// The mapping resolver uses it as a tie-break oracle when two columns both
// look like the journal entry id.
package balance

import (
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the absolute difference under which a group counts
// as balanced.
const DefaultTolerance = 0.01

// GroupResult describes one candidate group after summing its lines.
type GroupResult struct {
	GroupID    string
	DebitSum   decimal.Decimal
	CreditSum  decimal.Decimal
	Difference decimal.Decimal
	Balanced   bool
}

// Report is the outcome of validating one candidate grouping.
type Report struct {
	Groups         []GroupResult
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	TotalDiff      decimal.Decimal
	TotalBalanced  bool
	BalancedGroups int
	Score          float64
}

// Validator evaluates debit/credit balance per group within a tolerance.
type Validator struct {
	tolerance decimal.Decimal
}

// NewValidator creates a validator with the given absolute tolerance.
// A non-positive tolerance falls back to DefaultTolerance.
func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Validator{tolerance: decimal.NewFromFloat(tolerance)}
}

// Tolerance returns the configured absolute tolerance.
func (v *Validator) Tolerance() float64 {
	f, _ := v.tolerance.Float64()
	return f
}

// Validate groups the parallel slices by groupIDs, sums debit and credit
// per group, and scores the grouping:
//
//	score = 0.4*totalBonus + 0.6*(balancedGroups/totalGroups)
//
// where totalBonus is 1 when the grand totals cancel within tolerance and
// degrades with the relative difference otherwise. The result is a pure
// function of the inputs.
func (v *Validator) Validate(groupIDs []string, debits, credits []decimal.Decimal) Report {
	report := Report{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	if len(groupIDs) == 0 {
		return report
	}

	type sums struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	order := make([]string, 0, 16)
	byGroup := make(map[string]*sums, 16)
	for i, id := range groupIDs {
		g, ok := byGroup[id]
		if !ok {
			g = &sums{debit: decimal.Zero, credit: decimal.Zero}
			byGroup[id] = g
			order = append(order, id)
		}
		if i < len(debits) {
			g.debit = g.debit.Add(debits[i])
			report.TotalDebit = report.TotalDebit.Add(debits[i])
		}
		if i < len(credits) {
			g.credit = g.credit.Add(credits[i])
			report.TotalCredit = report.TotalCredit.Add(credits[i])
		}
	}

	for _, id := range order {
		g := byGroup[id]
		diff := g.debit.Sub(g.credit)
		balanced := diff.Abs().LessThan(v.tolerance)
		if balanced {
			report.BalancedGroups++
		}
		report.Groups = append(report.Groups, GroupResult{
			GroupID:    id,
			DebitSum:   g.debit,
			CreditSum:  g.credit,
			Difference: diff,
			Balanced:   balanced,
		})
	}

	report.TotalDiff = report.TotalDebit.Sub(report.TotalCredit)
	report.TotalBalanced = report.TotalDiff.Abs().LessThan(v.tolerance)
	report.Score = v.score(report)
	return report
}

func (v *Validator) score(r Report) float64 {
	score := 0.0

	// Total balance contributes 40%, degrading with the relative difference
	// when the grand totals do not cancel.
	if r.TotalBalanced {
		score += 0.4
	} else {
		totalSum := r.TotalDebit.Add(r.TotalCredit)
		if totalSum.IsPositive() {
			ratio, _ := r.TotalDiff.Abs().Div(totalSum).Float64()
			penalized := 1 - ratio*5
			if penalized > 0 {
				score += 0.4 * penalized
			}
		}
	}

	// Per-group balance rate contributes 60%.
	if len(r.Groups) > 0 {
		score += 0.6 * float64(r.BalancedGroups) / float64(len(r.Groups))
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// SplitBySign distributes a signed amount series into synthetic debit and
// credit series: positives become debits, negatives become credits. Used
// when only a single amount column is mapped.
func SplitBySign(amounts []decimal.Decimal) (debits, credits []decimal.Decimal) {
	debits = make([]decimal.Decimal, len(amounts))
	credits = make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		switch {
		case a.IsPositive():
			debits[i] = a
			credits[i] = decimal.Zero
		case a.IsNegative():
			debits[i] = decimal.Zero
			credits[i] = a.Neg()
		default:
			debits[i] = decimal.Zero
			credits[i] = decimal.Zero
		}
	}
	return debits, credits
}
