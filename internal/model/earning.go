package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkerAmount is the negligible amount booked when an action is approved.
// It timestamps the approval in the earnings stream without counting the
// proposal's estimated value as realised income.
var MarkerAmount = decimal.New(1, -6)

// Earning is an append-only income record.
type Earning struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"ts"`
	Source    string          `json:"source"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
}

// YieldSource returns the earnings source label for a token symbol.
func YieldSource(symbol string) string {
	return symbol + " yield"
}
