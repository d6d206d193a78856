package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	dErrors "ehopa/pkg/domain-errors"
)

// ParseAmount parses a user-typed decimal number. Both '.' and ',' are
// accepted as the decimal separator; thousands separators are not.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	s = strings.Replace(s, ",", ".", 1)
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount is not a number")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, "amount is not a number")
	}
	return d, nil
}

// ParseQuantity parses a catch weight in kilograms. It must be > 0.
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "quantity must be greater than zero")
	}
	return d, nil
}

// ParsePrice parses a unit price in meticais. It must be >= 0.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "unit price must not be negative")
	}
	return d, nil
}

// FormatSheet renders d the way the master sheet stores amounts: two
// decimals with a comma separator, no grouping ("1234,50").
func FormatSheet(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// FormatInput renders d as an editable form value ("12.5").
func FormatInput(d decimal.Decimal) string {
	return d.String()
}

// minGroupingValue is the smallest magnitude pt-PT groups thousands for;
// four-digit integer parts are written ungrouped ("1234,50").
var minGroupingValue = decimal.NewFromInt(10000)

// FormatLocale renders d for display in European Portuguese with two decimals.
func FormatLocale(d decimal.Decimal) string {
	d = d.Round(2)
	if d.Abs().LessThan(minGroupingValue) {
		return FormatSheet(d)
	}
	p := message.NewPrinter(language.EuropeanPortuguese)
	return p.Sprintf("%.2f", d.InexactFloat64())
}

// Total multiplies a quantity and a unit price as typed in the form and
// formats the result for display. Unparseable inputs count as zero so the
// total can be shown on every keystroke.
func Total(quantity, unitPrice string) string {
	q, err := ParseAmount(quantity)
	if err != nil {
		q = decimal.Zero
	}
	p, err := ParseAmount(unitPrice)
	if err != nil {
		p = decimal.Zero
	}
	return FormatLocale(q.Mul(p))
}
