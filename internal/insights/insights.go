// Package insights aggregates submitted records into the per-provider and
// revenue views shown to coordinators.
package insights

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ehopa/internal/registration/models"
	"ehopa/pkg/domain"
	pstrings "ehopa/pkg/platform/strings"
)

// StockLine is the catch of one species in one condition.
type StockLine struct {
	Species    string          `json:"species"`
	Condition  string          `json:"condition"`
	Kg         decimal.Decimal `json:"kg"`
	LatestDate string          `json:"latest_date"`
}

// ProviderSummary aggregates one provider's records.
type ProviderSummary struct {
	Provider    string          `json:"provider"`
	Origin      string          `json:"origin"`
	Submissions int             `json:"submissions"`
	TotalKg     decimal.Decimal `json:"total_kg"`
	Revenue     decimal.Decimal `json:"revenue"`
	FreshKg     decimal.Decimal `json:"fresh_kg"`
	FrozenKg    decimal.Decimal `json:"frozen_kg"`
	Stock       []StockLine     `json:"stock"`
}

// RevenueEstimate totals a set of records.
type RevenueEstimate struct {
	Submissions int             `json:"submissions"`
	TotalKg     decimal.Decimal `json:"total_kg"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Summarize groups records by provider. Records are expected newest first;
// a provider's Origin is taken from its newest record. Records whose amounts
// do not parse count as submissions but add nothing to the totals.
func Summarize(records []models.Record) []ProviderSummary {
	byProvider := make(map[string]*ProviderSummary)
	var order []string
	stock := make(map[string]map[string]*StockLine)

	for _, r := range records {
		name := strings.TrimSpace(r.Provider)
		s, ok := byProvider[name]
		if !ok {
			s = &ProviderSummary{Provider: name, Origin: r.Origin}
			byProvider[name] = s
			order = append(order, name)
			stock[name] = make(map[string]*StockLine)
		}
		s.Submissions++

		qty, price, err := r.Amounts()
		if err != nil {
			continue
		}
		s.TotalKg = s.TotalKg.Add(qty)
		s.Revenue = s.Revenue.Add(qty.Mul(price))
		switch domain.Condition(r.Condition) {
		case domain.ConditionFresh:
			s.FreshKg = s.FreshKg.Add(qty)
		case domain.ConditionFrozen:
			s.FrozenKg = s.FrozenKg.Add(qty)
		}

		key := r.Species + "\x00" + r.Condition
		line, ok := stock[name][key]
		if !ok {
			line = &StockLine{Species: r.Species, Condition: r.Condition, LatestDate: r.CaptureDate}
			stock[name][key] = line
		}
		line.Kg = line.Kg.Add(qty)
		if laterDate(r.CaptureDate, line.LatestDate) {
			line.LatestDate = r.CaptureDate
		}
	}

	col := collate.New(language.Portuguese, collate.IgnoreCase)
	out := make([]ProviderSummary, 0, len(order))
	for _, name := range order {
		s := byProvider[name]
		for _, line := range stock[name] {
			s.Stock = append(s.Stock, *line)
		}
		slices.SortFunc(s.Stock, func(a, b StockLine) int {
			if c := col.CompareString(a.Species, b.Species); c != 0 {
				return c
			}
			return strings.Compare(a.Condition, b.Condition)
		})
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ProviderSummary) int {
		return col.CompareString(a.Provider, b.Provider)
	})
	return out
}

// Search keeps summaries whose provider or origin contains text, ignoring
// case and accents. Blank text keeps everything.
func Search(summaries []ProviderSummary, text string) []ProviderSummary {
	q := pstrings.Fold(text)
	if q == "" {
		return summaries
	}
	var out []ProviderSummary
	for _, s := range summaries {
		if strings.Contains(pstrings.Fold(s.Provider), q) || strings.Contains(pstrings.Fold(s.Origin), q) {
			out = append(out, s)
		}
	}
	return out
}

// Revenue totals records. Unparseable amounts are skipped.
func Revenue(records []models.Record) RevenueEstimate {
	est := RevenueEstimate{Submissions: len(records)}
	for _, r := range records {
		qty, price, err := r.Amounts()
		if err != nil {
			continue
		}
		est.TotalKg = est.TotalKg.Add(qty)
		est.Revenue = est.Revenue.Add(qty.Mul(price))
	}
	return est
}

// Balance is what remains of sold after approved withdrawals. A negative
// result means the provider was overpaid.
func Balance(sold, approvedWithdrawals decimal.Decimal) decimal.Decimal {
	return sold.Sub(approvedWithdrawals)
}

func laterDate(candidate, current string) bool {
	c, err := domain.ParseSheetDate(candidate)
	if err != nil {
		return false
	}
	cur, err := domain.ParseSheetDate(current)
	if err != nil {
		return true
	}
	return c.After(cur)
}
