// Package report aggregates earnings for display.
package report

import (
	"sort"

	"YieldSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// SourceTotal is the sum of earnings from one source.
type SourceTotal struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

// DayTotal is the sum of earnings on one UTC calendar day.
type DayTotal struct {
	Day    string          `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary bundles the aggregates of an earnings window.
type Summary struct {
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	BySource []SourceTotal   `json:"by_source"`
	ByDay    []DayTotal      `json:"by_day"`
}

// Sum returns the total amount of earnings.
func Sum(earnings []model.Earning) decimal.Decimal {
	total := decimal.Zero
	for _, e := range earnings {
		total = total.Add(e.Amount)
	}
	return total
}

// BySource groups earnings by source, largest first. Equal amounts are
// ordered by source name.
func BySource(earnings []model.Earning) []SourceTotal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range earnings {
		sums[e.Source] = sums[e.Source].Add(e.Amount)
	}
	out := make([]SourceTotal, 0, len(sums))
	for src, amt := range sums {
		out = append(out, SourceTotal{Source: src, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// ByDay groups earnings by UTC calendar day in ascending order.
func ByDay(earnings []model.Earning) []DayTotal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range earnings {
		day := model.DayOf(e.Timestamp)
		sums[day] = sums[day].Add(e.Amount)
	}
	out := make([]DayTotal, 0, len(sums))
	for day, amt := range sums {
		out = append(out, DayTotal{Day: day, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// Summarize computes every aggregate of earnings at once.
func Summarize(earnings []model.Earning) Summary {
	return Summary{
		Total:    Sum(earnings),
		Count:    len(earnings),
		BySource: BySource(earnings),
		ByDay:    ByDay(earnings),
	}
}
