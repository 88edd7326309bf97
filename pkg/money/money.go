// Package money provides locale-aware parsing of amount strings from
// accounting exports and currency-safe formatting of totals for reports.
// Parsing is precision-safe via shopspring/decimal; formatting goes through
// go-money so currency fraction rules are honored.
package money

import (
	"errors"
	"regexp"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrNoNumber is returned when no numeric token can be extracted from a
// cell value.
var ErrNoNumber = errors.New("money: no numeric value found")

var (
	currencyRunes = strings.NewReplacer("€", "", "$", "", "£", "", "¥", "", "₹", "", " ", "", " ", "")
	// The grouped alternative requires at least one thousands group so that
	// unseparated numbers fall through to the plain alternative instead of
	// matching only their first three digits.
	numberPattern = regexp.MustCompile(`-?\d{1,3}(?:[.,]\d{3})+(?:[.,]\d+)?|-?\d+(?:[.,]\d+)?`)
)

// Parse extracts the first numeric token from a raw cell value and returns
// it as a decimal. Both "1,234.56" and "1.234,56" are handled; a lone
// separator followed by at most two digits is treated as the decimal mark.
func Parse(raw string) (decimal.Decimal, error) {
	s := currencyRunes.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, ErrNoNumber
	}
	// Accountants write negatives in parentheses.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	token := numberPattern.FindString(s)
	if token == "" {
		return decimal.Zero, ErrNoNumber
	}
	token = normalizeSeparators(token)
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, ErrNoNumber
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseOrZero is Parse with the fail-soft default the cleaning pipeline
// uses: unparseable cells count as zero.
func ParseOrZero(raw string) decimal.Decimal {
	d, err := Parse(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// IsNumeric reports whether the raw value parses as a number.
func IsNumeric(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// normalizeSeparators rewrites a matched number token into dot-decimal form.
func normalizeSeparators(token string) string {
	hasComma := strings.Contains(token, ",")
	hasDot := strings.Contains(token, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(token, ".") > strings.LastIndex(token, ",") {
			// US: 1,234.56
			return strings.ReplaceAll(token, ",", "")
		}
		// European: 1.234,56
		token = strings.ReplaceAll(token, ".", "")
		return strings.ReplaceAll(token, ",", ".")
	case hasComma:
		parts := strings.Split(token, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// European decimal: 1234,56
			return strings.ReplaceAll(token, ",", ".")
		}
		// Thousands separator
		return strings.ReplaceAll(token, ",", "")
	default:
		return token
	}
}

// Format renders a decimal amount for reports using the currency's display
// rules (symbol, fraction digits). Unknown currency codes fall back to EUR.
func Format(amount decimal.Decimal, currencyCode string) string {
	currency := gomoney.GetCurrency(currencyCode)
	if currency == nil {
		currency = gomoney.GetCurrency(gomoney.EUR)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := amount.Mul(multiplier).Round(0).IntPart()
	return gomoney.New(cents, currency.Code).Display()
}
